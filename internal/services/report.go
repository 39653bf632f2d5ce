package services

import (
	"fmt"
	"io"
	"math"

	"video-quality-dashboard/internal/metrics"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Report output formats.
const (
	FormatText  = "text"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// ValidFormat reports whether name is a supported report format.
func ValidFormat(name string) bool {
	switch name {
	case FormatText, FormatCSV, FormatTable:
		return true
	}
	return false
}

// WriteReport renders reports in format. text and csv write one block or row
// per report; table writes a single summary of all of them. text and table
// end with a recommendation when more than one file was compared.
func WriteReport(w io.Writer, format string, reports []Report) error {
	switch format {
	case FormatText:
		for i, r := range reports {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := writeText(w, r); err != nil {
				return err
			}
		}
		return writeRecommendation(w, reports)
	case FormatCSV:
		for _, r := range reports {
			if _, err := fmt.Fprintf(w, "%s,%.4f\n", csvPSNR(r.AveragePSNR), r.AverageSSIM); err != nil {
				return err
			}
		}
		return nil
	case FormatTable:
		writeTable(w, reports)
		return writeRecommendation(w, reports)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeText(w io.Writer, r Report) error {
	lines := []struct {
		key   string
		value string
	}{
		{"original", r.Original},
		{"compressed", r.Compressed},
		{"resolution", fmt.Sprintf("%dx%d", r.Width, r.Height)},
		{"fps", fmt.Sprintf("%.2f", r.FPS)},
		{"duration", fmt.Sprintf("%.2fs", r.Duration())},
		{"totalFrames", fmt.Sprint(r.TotalFrames)},
		{"framesProcessed", fmt.Sprint(r.FramesProcessed)},
		{"identicalFrames", fmt.Sprint(r.IdenticalFrames)},
		{"stride", fmt.Sprint(r.Stride)},
		{"averagePSNR", metrics.FormatPSNR(r.AveragePSNR)},
		{"averageSSIM", fmt.Sprintf("%.4f", r.AverageSSIM)},
		{"rating", metrics.Stars(r.Rating())},
		{"efficiency", efficiencyText(r)},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", l.key, l.value); err != nil {
			return err
		}
	}
	return nil
}

func efficiencyText(r Report) string {
	if r.CompressedSize <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", r.Efficiency())
}

func writeRecommendation(w io.Writer, reports []Report) error {
	if len(reports) < 2 {
		return nil
	}
	best, ok := Recommend(reports)
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nrecommended: %s (%.2f MB, PSNR %s dB, SSIM %.4f, efficiency %.4f)\n",
		best.Compressed, best.SizeMB(), metrics.FormatPSNR(best.AveragePSNR), best.AverageSSIM, best.Efficiency())
	return err
}

func csvPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", psnr)
}

func writeTable(w io.Writer, reports []Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Size", "Frames", "PSNR (dB)", "SSIM", "Rating", "Score/MB"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, r := range reports {
		size := "-"
		if r.CompressedSize > 0 {
			size = humanize.Bytes(uint64(r.CompressedSize))
		}
		table.Append([]string{
			r.Compressed,
			size,
			fmt.Sprintf("%d/%d", r.FramesProcessed, r.TotalFrames),
			metrics.FormatPSNR(r.AveragePSNR),
			fmt.Sprintf("%.4f", r.AverageSSIM),
			metrics.Stars(r.Rating()),
			efficiencyText(r),
		})
	}
	table.Render()
}
