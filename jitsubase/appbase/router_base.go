package appbase

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/penglongli/gin-metrics/ginmetrics"
)

type Router struct {
	Service
	engine       *gin.Engine
	authTokens   []string
	tokenSecrets []string
	noAuthPaths  []string
}

func NewRouterBase(config Config, noAuthPaths []string) *Router {
	base := NewServiceBase("router")
	authTokens := config.SplitAuthTokens()
	if len(authTokens) == 0 {
		base.Warnf("⚠️ No auth tokens provided. All requests will be allowed")
	}

	router := &Router{
		Service:      base,
		authTokens:   authTokens,
		tokenSecrets: config.SplitTokenSecrets(),
		noAuthPaths:  noAuthPaths,
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	m := ginmetrics.GetMonitor()
	m.SetSlowTime(5)
	// scenario runs are slower than regular api calls
	m.SetDuration([]float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10, 30})
	m.UseWithoutExposingEndpoint(engine)
	engine.Use(gin.Recovery())
	engine.Use(router.authMiddleware)
	router.engine = engine
	return router
}

// Engine returns gin router
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) authMiddleware(c *gin.Context) {
	if len(r.authTokens) == 0 {
		return
	}
	if utils.ArrayContains(r.noAuthPaths, c.FullPath()) {
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header with Bearer token is required"})
		return
	}
	if r.tokenValid(token) {
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
}

func (r *Router) tokenValid(token string) bool {
	for _, authToken := range r.authTokens {
		salt, hash, hashed := strings.Cut(authToken, ".")
		if !hashed {
			if token == authToken {
				return true
			}
			continue
		}
		for _, secret := range r.tokenSecrets {
			if HashToken(token, salt, secret) == hash {
				return true
			}
		}
	}
	return false
}

// ResponseError logs error and writes it as json response. When maskError is set
// the client receives only error id that can be found in logs
func (r *Router) ResponseError(c *gin.Context, code int, errorType string, maskError bool, err error, logFormat string, logArgs ...any) RouterError {
	routerError := RouterError{Error: err, ErrorType: errorType}
	if err != nil {
		if maskError {
			errorID := uuid.NewString()
			err = fmt.Errorf("error# %s: %s: %w", errorID, errorType, err)
			routerError.PublicError = fmt.Errorf("error# %s: %s", errorID, errorType)
		} else {
			err = fmt.Errorf("%s: %w", errorType, err)
			routerError.PublicError = err
		}
	} else {
		err = fmt.Errorf("%s", errorType)
		routerError.PublicError = err
	}
	if logFormat == "" {
		logFormat = "%v"
	} else {
		logFormat = logFormat + " %v"
	}
	logArgs = append(logArgs, err)
	r.Errorf(logFormat, logArgs...)
	c.JSON(code, gin.H{"error": routerError.PublicError.Error()})
	return routerError
}

func HashToken(token string, salt string, secret string) string {
	hash := sha512.New()
	hash.Write([]byte(token + salt + secret))
	return base64.RawStdEncoding.EncodeToString(hash.Sum(nil))
}

type RouterError struct {
	Error       error
	PublicError error
	ErrorType   string
}
