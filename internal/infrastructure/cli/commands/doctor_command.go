package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/domain"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config, model keys, prompt template and archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.DoctorService == nil {
				return errors.New(ErrDoctorServiceUnavailable)
			}
			report, err := container.DoctorService.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("doctor: %w", err)
			}

			if asJSON {
				if err := writeDoctorJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else if err := writeDoctorTable(cmd.OutOrStdout(), report); err != nil {
				return err
			}

			if report.Failed() {
				return errors.New("fieldx is not ready to extract; fix the errors above")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print checks as JSON")
	return cmd
}

type doctorCheckJSON struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

func writeDoctorJSON(out io.Writer, report domain.HealthReport) error {
	checks := make([]doctorCheckJSON, 0, len(report.Checks))
	for _, check := range report.Checks {
		checks = append(checks, doctorCheckJSON{Name: check.Name, Status: string(check.Status), Details: check.Details})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"ok": !report.Failed(), "checks": checks})
}

// writeDoctorTable prints one aligned row per check and a tally
func writeDoctorTable(out io.Writer, report domain.HealthReport) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	counts := map[domain.HealthStatus]int{}
	for _, check := range report.Checks {
		counts[check.Status]++
		fmt.Fprintf(tw, "%s\t%s\t%s\n", statusMarker(check.Status), check.Name, check.Details)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d ok, %d warnings, %d errors\n",
		counts[domain.HealthOK], counts[domain.HealthWarn], counts[domain.HealthError])
	return nil
}

func statusMarker(status domain.HealthStatus) string {
	switch status {
	case domain.HealthOK:
		return "[ok]"
	case domain.HealthWarn:
		return "[warn]"
	default:
		return "[FAIL]"
	}
}
