package daemon

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/battpipe/battpipe/pkg/charge"
	"github.com/battpipe/battpipe/pkg/powerinfo"
	"github.com/battpipe/battpipe/pkg/version"
)

func getThresholds(c *gin.Context) {
	cur, err := applier.Current()
	if err != nil {
		logrus.Errorf("getThresholds failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, cur)
}

// setThresholds accepts the same expression grammar as the pipe, but over the
// API the caller gets an actual response instead of having to tail the logs.
func setThresholds(c *gin.Context) {
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	resolved, err := handleExpression(string(b))
	if err != nil {
		var applyErr *charge.ApplyError
		status := http.StatusBadRequest
		if errors.As(err, &applyErr) {
			status = http.StatusInternalServerError
		}
		c.IndentedJSON(status, err.Error())
		_ = c.AbortWithError(status, err)
		return
	}
	if resolved == nil {
		c.IndentedJSON(http.StatusOK, "empty expression, nothing to do")
		return
	}

	logrus.Infof("applied thresholds %s via api", resolved)
	c.IndentedJSON(http.StatusCreated, "applied thresholds "+resolved.String())
}

func getBatteryInfo(c *gin.Context) {
	snapshot, err := powerinfo.Read()
	if err != nil {
		logrus.Errorf("getBatteryInfo failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, snapshot)
}

func getConfig(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
