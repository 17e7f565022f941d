package output

import (
	"bufio"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ukaji3/xpln-go/pkg/xpln/loader"
	"github.com/ukaji3/xpln-go/pkg/xpln/summary"
)

// WriteReport writes one line per skipped row followed by a total.
func WriteReport(w io.Writer, diagnostics []loader.Diagnostic) error {
	bw := bufio.NewWriter(w)
	for _, d := range diagnostics {
		fmt.Fprintln(bw, d.Error())
	}
	fmt.Fprintf(bw, "%d rows skipped\n", len(diagnostics))
	return bw.Flush()
}

// WriteSummary writes station statistics as an aligned table.
func WriteSummary(w io.Writer, stations []summary.StationSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATION\tSTOPS\tTRAINS\tFIRST\tLAST\tDWELL MEAN\tDWELL MEDIAN\tDWELL MAX")
	for _, s := range stations {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Station, s.Stops, s.Trains, s.FirstArrival, s.LastDeparture,
			minutes(s.Dwell.Mean, s.Dwell.Count), minutes(s.Dwell.Median, s.Dwell.Count), minutes(s.Dwell.Max, s.Dwell.Count))
	}
	return tw.Flush()
}

func minutes(v float64, count int) string {
	if count == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fm", v)
}
