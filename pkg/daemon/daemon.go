// Package daemon runs the battpipe daemon: it owns the named pipe, the
// sysfs applier and the unix-socket status API.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/battpipe/battpipe/pkg/charge"
	"github.com/battpipe/battpipe/pkg/config"
	"github.com/battpipe/battpipe/pkg/pipe"
	"github.com/battpipe/battpipe/pkg/sysfs"
	"github.com/battpipe/battpipe/pkg/threshold"
)

var (
	conf        *config.Config
	applier     *charge.Applier
	pipeManager *pipe.Manager
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/thresholds", getThresholds)
	router.PUT("/thresholds", setThresholds)
	router.GET("/battery-info", getBatteryInfo)
	router.GET("/config", getConfig)
	router.GET("/version", getVersion)

	return router
}

// Run starts the daemon and blocks until SIGINT or SIGTERM. Startup failures
// (pipe path occupied by a non-FIFO, unwritable kernel attributes, second
// instance) are returned; once the loop is running, per-request failures only
// ever reach the log.
func Run(c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	conf = c
	logrus.WithFields(conf.LogrusFields()).Info("config loaded")

	// Single-instance guard. Holding the lock also makes it safe to clear a
	// stale socket from a crashed predecessor.
	lockPath := filepath.Join(filepath.Dir(conf.SocketPath), "battpipe.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("another battpipe daemon instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logrus.Warnf("failed to release daemon lock: %v", err)
		}
	}()

	fs := sysfs.New(conf.StartThresholdPath, conf.EndThresholdPath)
	applier = charge.NewApplier(fs)

	pipeManager = pipe.NewManager(conf.PipePath, conf.PipeUID, conf.PipeGID, conf.PipeMode)
	if err := pipeManager.Ensure(); err != nil {
		return err
	}

	startWritable := fs.Writable(sysfs.StartThreshold)
	endWritable := fs.Writable(sysfs.EndThreshold)
	if !startWritable {
		logrus.Warnf("start threshold attribute %s is not writable", conf.StartThresholdPath)
	}
	if !endWritable {
		logrus.Warnf("end threshold attribute %s is not writable", conf.EndThresholdPath)
	}
	if !startWritable && !endWritable {
		return errors.New("neither threshold attribute is writable, check driver support and privileges")
	}

	// Converge the kernel to the configured defaults on boot, through the
	// same ordered applier as any other request.
	defaults := threshold.Resolved{
		Start: threshold.Percent(conf.DefaultStart),
		End:   threshold.Percent(conf.DefaultEnd),
	}
	if err := applier.Apply(defaults); err != nil {
		logrus.Errorf("failed to apply default thresholds %s: %v", defaults, err)
	} else {
		logrus.Infof("applied default thresholds %s", defaults)
	}

	router := setupRoutes()
	srv := &http.Server{
		Handler: router,
	}

	if fi, err := os.Stat(conf.SocketPath); err == nil && fi.Mode()&os.ModeSocket != 0 {
		logrus.Warnf("removing stale socket %s", conf.SocketPath)
		if err := os.Remove(conf.SocketPath); err != nil {
			return err
		}
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", conf.SocketPath)
	if err != nil {
		return err
	}

	if conf.AllowNonRootAccess {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", conf.SocketPath)
		if err := os.Chmod(conf.SocketPath, 0777); err != nil {
			return err
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	go func() {
		logrus.Debugln("main loop starts")

		infiniteLoop()

		logrus.Errorf("main loop exited unexpectedly")
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("closing pipe")
	if err := pipeManager.Close(); err != nil {
		logrus.Errorf("failed to close pipe: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
