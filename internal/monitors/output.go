package monitors

import (
	"time"

	"github.com/signalfx/golib/v3/datapoint"

	"github.com/gopivotal/newrelic-plugins/internal/core/common/dpmeta"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

// The default implementation of Output
type monitorOutput struct {
	monitorType string
	monitorID   types.MonitorID
	component   string
	guid        string
	version     string
	debug       bool
	dpChan      chan<- []*datapoint.Datapoint
	now         func() time.Time
}

var _ types.Output = &monitorOutput{}

func (mo *monitorOutput) SendDatapoints(dps ...*datapoint.Datapoint) {
	if len(dps) == 0 {
		return
	}

	for i := range dps {
		mo.preprocessDP(dps[i])
	}

	mo.dpChan <- dps
}

func (mo *monitorOutput) SendMetric(path, unit string, value datapoint.Value) {
	dp := datapoint.New(path, nil, value, datapoint.Gauge, mo.now())
	if dp.Meta == nil {
		dp.Meta = map[interface{}]interface{}{}
	}
	dp.Meta[dpmeta.UnitMeta] = unit
	mo.SendDatapoints(dp)
}

func (mo *monitorOutput) preprocessDP(dp *datapoint.Datapoint) {
	if dp.Meta == nil {
		dp.Meta = map[interface{}]interface{}{}
	}

	dp.Meta[dpmeta.MonitorIDMeta] = string(mo.monitorID)
	dp.Meta[dpmeta.MonitorTypeMeta] = mo.monitorType
	dp.Meta[dpmeta.ComponentMeta] = mo.component
	dp.Meta[dpmeta.GUIDMeta] = mo.guid
	dp.Meta[dpmeta.VersionMeta] = mo.version
	if mo.debug {
		dp.Meta[dpmeta.DebugMeta] = true
	}
	if dp.Timestamp.IsZero() {
		dp.Timestamp = mo.now()
	}
}
