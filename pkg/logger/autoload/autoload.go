// Package autoload initializes the global logger from the LOG_* environment
// on import. Import it for side effects from main.
package autoload

import (
	configx "github.com/pattarin-dev/shopflow/pkg/config"
	logx "github.com/pattarin-dev/shopflow/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
