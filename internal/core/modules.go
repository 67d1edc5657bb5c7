package core

// Do an import of all of the built-in monitors so that they register
// themselves

import (
	_ "github.com/gopivotal/newrelic-plugins/internal/monitors/httpdmodbmx"
	_ "github.com/gopivotal/newrelic-plugins/internal/monitors/rabbitmq"
	_ "github.com/gopivotal/newrelic-plugins/internal/monitors/redis"
)
