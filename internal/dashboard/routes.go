package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/planboard/internal/query"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	r := opts.Reader

	router.GET("/healthz", func(c *gin.Context) {
		st := r.State()
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   st.Version,
			"observers": opts.Hub.Len(),
		})
	})

	api := router.Group("/api")
	api.GET("/state", handleState(r))
	api.GET("/sprints", handleSprints(r))
	api.GET("/sprints/:number", handleSprint(r))
	api.GET("/sprints/:number/summary", handleSprintSummary(r))
	api.GET("/tickets", handleTickets(r))
	api.GET("/specs", handleSpecs(r))
	api.GET("/specs/:role", handleSpec(r))
	api.GET("/prompts", handlePrompts(r))
	api.GET("/screens", handleScreens(r))
	api.GET("/burndown", handleBurndown(r))
	api.GET("/metrics", handleMetrics(r))

	// Push channels.
	api.GET("/events", handleSSE(opts.Hub, opts.Heartbeat, opts.Logger))
	router.GET("/ws", handleWebSocket(opts.Hub, opts.Heartbeat, opts.Logger))
}

func handleState(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.State())
	}
}

func handleSprints(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Sprints())
	}
}

func handleSprint(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := sprintNumber(c)
		if !ok {
			return
		}
		sp, err := r.Sprint(n)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sp)
	}
}

func handleSprintSummary(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := sprintNumber(c)
		if !ok {
			return
		}
		sum, err := r.SprintSummary(n)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

func handleTickets(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := ticketFilter(c)
		if !ok {
			return
		}
		rows, err := r.Tickets(filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleSpecs(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Specs())
	}
}

func handleSpec(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		spec, err := r.Spec(c.Param("role"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, spec)
	}
}

func handlePrompts(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Prompts())
	}
}

func handleScreens(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Screens())
	}
}

func handleBurndown(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Burndown())
	}
}

func handleMetrics(r *query.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Metrics())
	}
}
