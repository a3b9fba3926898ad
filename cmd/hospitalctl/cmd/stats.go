package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/web"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your dashboard aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/dashboard"); err != nil {
			return err
		}

		d, err := web.LoadDoctorDashboard(ctx, app.API)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %s", apiclient.Message(err))
		}

		pairs := []string{
			"total patients", itoa(d.TotalPatients.TotalPatients),
			"high risk", itoa(d.HighRisk.HighRiskCount),
			"avg readmission %", ftoa(d.Stats.AvgReadmissionProbability * 100),
			"readmitted", itoa(d.ReadmissionRate.ReadmittedCount),
			"readmission rate %", ftoa(d.ReadmissionRate.ReadmissionRatePercent),
		}
		if d.Profile != nil {
			pairs = append([]string{"doctor", d.Profile.Name}, pairs...)
		}

		return printView(cmd.OutOrStdout(), outputFormat, fieldView(d, pairs...))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
