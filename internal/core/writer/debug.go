package writer

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"

	"github.com/gopivotal/newrelic-plugins/internal/core/common/dpmeta"
)

var errFinalFlush = errors.New("final flush to New Relic failed")

// printDatapoint writes a datapoint as "<path>[<unit>] : <value>"
func printDatapoint(out io.Writer, dp *datapoint.Datapoint) {
	fmt.Fprintf(out, "%s[%s] : %v\n", dp.Metric, dpmeta.String(dp.Meta, dpmeta.UnitMeta), dp.Value)
}
