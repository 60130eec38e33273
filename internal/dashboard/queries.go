package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/planboard/internal/parser"
	"github.com/zulandar/planboard/internal/query"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Format string `json:"format,omitempty"`
	Path   string `json:"path,omitempty"`
}

// writeError maps query errors to HTTP statuses: missing entities are 404,
// bad filters 400, and a spec that failed structured parsing 422.
func writeError(c *gin.Context, err error) {
	var pe *parser.ParseError
	switch {
	case errors.As(err, &pe):
		c.JSON(http.StatusUnprocessableEntity, errorBody{Error: pe.Error(), Format: pe.Format, Path: pe.Path})
	case errors.Is(err, query.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, query.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

// sprintNumber parses the :number path parameter, writing a 400 when it is
// not an integer.
func sprintNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "sprint number must be an integer"})
		return 0, false
	}
	return n, true
}

// ticketFilter reads ?status= and ?bugs= from the query string.
func ticketFilter(c *gin.Context) (query.TicketFilter, bool) {
	f := query.TicketFilter{Status: c.Query("status")}
	if raw := strings.TrimSpace(c.Query("bugs")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "bugs must be true or false"})
			return f, false
		}
		f.IncludeBugs = b
	}
	return f, true
}
