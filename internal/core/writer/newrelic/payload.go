package newrelic

import (
	"math"
	"sort"

	"github.com/signalfx/golib/v3/datapoint"

	"github.com/gopivotal/newrelic-plugins/internal/core/common/dpmeta"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

// Payload is the body of a Platform API metric post
type Payload struct {
	Agent      AgentInfo    `json:"agent"`
	Components []*Component `json:"components"`
}

// AgentInfo identifies the process doing the reporting
type AgentInfo struct {
	Host    string `json:"host"`
	PID     int    `json:"pid"`
	Version string `json:"version"`
}

// Component is one monitored instance and the metrics collected for it since
// the last post
type Component struct {
	Name     string                 `json:"name"`
	GUID     string                 `json:"guid"`
	Duration int                    `json:"duration"`
	Metrics  map[string]interface{} `json:"metrics"`
}

// Aggregate is the Platform API's summary form, used when a metric has more
// than one value within a single post.
type Aggregate struct {
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	SumOfSquares float64 `json:"sum_of_squares"`
}

func (a *Aggregate) add(v float64) {
	if a.Count == 0 || v < a.Min {
		a.Min = v
	}
	if a.Count == 0 || v > a.Max {
		a.Max = v
	}
	a.Total += v
	a.SumOfSquares += v * v
	a.Count++
}

// MetricName renders the Platform API metric name for a metric path and unit
func MetricName(path, unit string) string {
	return "Component/" + path + "[" + unit + "]"
}

type componentKey struct {
	guid string
	name string
}

// plugin is the set of components reported under one plugin GUID
type plugin struct {
	guid       string
	version    string
	components map[componentKey]*Component
	// the raw values seen for each metric, per component
	values map[componentKey]map[string][]float64
}

// groupByPlugin splits datapoints by plugin GUID and component.  Datapoints
// without a GUID or with non-numeric or non-finite values are dropped.
func groupByPlugin(dps []*datapoint.Datapoint) []*plugin {
	byGUID := map[string]*plugin{}

	for _, dp := range dps {
		guid := dpmeta.String(dp.Meta, dpmeta.GUIDMeta)
		if guid == "" {
			continue
		}
		val, ok := types.Float64(dp.Value)
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}

		p, ok := byGUID[guid]
		if !ok {
			p = &plugin{
				guid:       guid,
				version:    dpmeta.String(dp.Meta, dpmeta.VersionMeta),
				components: map[componentKey]*Component{},
				values:     map[componentKey]map[string][]float64{},
			}
			byGUID[guid] = p
		}

		key := componentKey{guid: guid, name: dpmeta.String(dp.Meta, dpmeta.ComponentMeta)}
		if _, ok := p.components[key]; !ok {
			p.components[key] = &Component{Name: key.name, GUID: guid, Metrics: map[string]interface{}{}}
			p.values[key] = map[string][]float64{}
		}

		name := MetricName(dp.Metric, dpmeta.String(dp.Meta, dpmeta.UnitMeta))
		p.values[key][name] = append(p.values[key][name], val)
	}

	out := make([]*plugin, 0, len(byGUID))
	for _, p := range byGUID {
		for key, metrics := range p.values {
			for name, vals := range metrics {
				p.components[key].Metrics[name] = metricValue(vals)
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].guid < out[j].guid })
	return out
}

func metricValue(vals []float64) interface{} {
	if len(vals) == 1 {
		return vals[0]
	}
	agg := &Aggregate{}
	for _, v := range vals {
		agg.add(v)
	}
	return agg
}

// payload builds the post body for this plugin with the given duration
func (p *plugin) payload(agent AgentInfo, duration int) *Payload {
	agent.Version = p.version

	comps := make([]*Component, 0, len(p.components))
	for _, c := range p.components {
		c.Duration = duration
		comps = append(comps, c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].Name < comps[j].Name })

	return &Payload{Agent: agent, Components: comps}
}
