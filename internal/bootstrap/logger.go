package bootstrap

import (
	"github.com/sirupsen/logrus"

	"github.com/janj3143/careertrojan-bridge/internal/config"
)

func BuildLogger(cfg config.Config) (*logrus.Logger, error) {
	return buildLogger(cfg)
}
