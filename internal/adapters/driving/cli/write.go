package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var (
	writeUnit  string
	writeStart string
	writeEnd   string
)

var writeCmd = &cobra.Command{
	Use:   "write <resource> <value>",
	Short: "Write a value to the health store",
	Long: `Writes a single value for a writable resource: nutrition.water,
nutrition.caffeine or vitals.mindful_session. The value covers --start to
--end (RFC 3339), both defaulting to now. Write access must have been
requested with 'vitalsync permissions --write'.`,
	Args: cobra.ExactArgs(2),
	RunE: runWrite,
}

func init() {
	f := writeCmd.Flags()
	f.StringVar(&writeUnit, "unit", "", "unit of the value, e.g. ml, mg, min")
	f.StringVar(&writeStart, "start", "", "start time (RFC 3339)")
	f.StringVar(&writeEnd, "end", "", "end time (RFC 3339)")
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	resource, err := domain.ParseWritableResource(args[0])
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}

	now := time.Now()
	start, err := parseTimeFlag(writeStart, now)
	if err != nil {
		return err
	}
	end, err := parseTimeFlag(writeEnd, now)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	input := domain.WriteInput{Resource: resource, Value: value, Unit: writeUnit}
	if err := client.Write(cmd.Context(), input, start, end); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	cmd.Printf("Wrote %g %s to %s.\n", value, writeUnit, resource)
	return nil
}

func parseTimeFlag(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t, nil
}
