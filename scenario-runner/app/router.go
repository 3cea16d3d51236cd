package app

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/jitsucom/airbyte-scenarios/scenario-runner/metrics"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	"github.com/jitsucom/airbyte-scenarios/scenarios/runner"
	"github.com/joomcode/errorx"
)

type Router struct {
	*appbase.Router
	repository     appbase.Repository[Scenarios]
	reloader       func() (bool, error)
	scenarioRunner *ScenarioRunner
}

func NewRouter(appContext *Context) *Router {
	base := appbase.NewRouterBase(appContext.config.Config, []string{"/health"})

	router := &Router{
		Router:         base,
		repository:     appContext.repository,
		reloader:       appContext.repository.Reload,
		scenarioRunner: appContext.scenarioRunner,
	}
	engine := router.Engine()
	engine.GET("/health", router.Health)
	engine.GET("/scenarios", router.ScenariosHandler)
	engine.POST("/reload", router.ReloadHandler)
	engine.POST("/run", router.RunHandler)
	engine.Any("/replay/:scenario/*path", router.ReplayHandler)
	return router
}

func (r *Router) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "pass", "scenarios": len(r.repository.GetData().All())})
}

func (r *Router) ScenariosHandler(c *gin.Context) {
	c.JSON(http.StatusOK, r.repository.GetData().Infos())
}

func (r *Router) ReloadHandler(c *gin.Context) {
	modified, err := r.reloader()
	if err != nil {
		r.ResponseError(c, http.StatusUnprocessableEntity, "failed to reload scenarios", false, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified": modified, "scenarios": len(r.repository.GetData().All())})
}

type runResponse struct {
	Passed  bool             `json:"passed"`
	Failed  int              `json:"failed"`
	Results []*runner.Result `json:"results"`
}

// RunHandler runs scenario by name passed in `name` query parameter or all scenarios
func (r *Router) RunHandler(c *gin.Context) {
	var results []*runner.Result
	if name := c.Query("name"); name != "" {
		result, err := r.scenarioRunner.Run(name)
		if err != nil {
			metrics.RunRequests("error").Inc()
			code := http.StatusInternalServerError
			if errorx.HasTrait(err, errorx.NotFound()) {
				code = http.StatusNotFound
			}
			r.ResponseError(c, code, "run failed", false, err, "")
			return
		}
		results = []*runner.Result{result}
	} else {
		results = r.scenarioRunner.RunAll()
	}
	failed := len(Failed(results))
	metrics.RunRequests(utils.Ternary(failed == 0, "passed", "failed")).Inc()
	c.JSON(http.StatusOK, runResponse{Passed: failed == 0, Failed: failed, Results: results})
}

// ReplayHandler answers with the mocked response of declarative scenario: /replay/{scenario}/{path with query}
func (r *Router) ReplayHandler(c *gin.Context) {
	name := c.Param("scenario")
	d, ok := r.repository.GetData().Get(name)
	if !ok {
		metrics.ReplayRequests(metrics.UnknownScenario, "not_found").Inc()
		r.ResponseError(c, http.StatusNotFound, "scenario not found", false, nil, "")
		return
	}
	mapping, err := d.RequestMapping()
	if err != nil {
		metrics.ReplayRequests(name, "error").Inc()
		r.ResponseError(c, http.StatusInternalServerError, "invalid requests table", false, err, "")
		return
	}
	req := c.Request.Clone(c.Request.Context())
	req.URL.Path = c.Param("path")
	req.URL.RawPath = ""
	resp, err := scenarios.NewReplayDispatcher(mapping).Send(req)
	if err != nil {
		metrics.ReplayRequests(name, "miss").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()
	metrics.ReplayRequests(name, "hit").Inc()
	body, _ := io.ReadAll(resp.Body)
	c.Data(resp.StatusCode, strings.Join(resp.Header.Values("Content-Type"), ";"), body)
}
