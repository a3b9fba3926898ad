package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/web"
)

var managementCmd = &cobra.Command{
	Use:     "management",
	Aliases: []string{"mgmt"},
	Short:   "Hospital-wide views for management accounts",
}

var managementDoctorsCmd = &cobra.Command{
	Use:   "doctors",
	Short: "List doctors",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/management/doctors"); err != nil {
			return err
		}

		doctors, err := app.API.Management().Doctors(ctx)
		if err != nil {
			return fmt.Errorf("failed to list doctors: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, doctorTable(doctors))
	},
}

var managementDoctorPatientsCmd = &cobra.Command{
	Use:   "doctor-patients <doctor-id>",
	Short: "List the patients of one doctor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/management/doctors"); err != nil {
			return err
		}

		patients, err := app.API.Management().PatientsForDoctor(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list patients: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, patientTable(patients))
	},
}

var managementPatientCmd = &cobra.Command{
	Use:   "patient <patient-id>",
	Short: "Show any patient's record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/management/doctors"); err != nil {
			return err
		}

		p, err := app.API.Management().PatientDetails(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load patient: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, patientView(p))
	},
}

var managementCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the hospital-wide patient count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/management/dashboard"); err != nil {
			return err
		}

		count, err := app.API.Management().TotalPatients(ctx)
		if err != nil {
			return fmt.Errorf("failed to count patients: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat,
			fieldView(count, "total patients", itoa(count.TotalPatients)))
	},
}

var managementStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the management dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/management/dashboard"); err != nil {
			return err
		}

		d, err := web.LoadManagementDashboard(ctx, app.API, app.Analytics)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, fieldView(d,
			append(hospitalStatsPairs(d.Stats), "doctors", itoa(len(d.Doctors)))...))
	},
}

var managementAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show hospital analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/management/analytics"); err != nil {
			return err
		}

		data, err := app.Analytics.Analytics(ctx)
		if err != nil {
			return fmt.Errorf("failed to load analytics: %s", apiclient.Message(err))
		}

		pairs := append(hospitalStatsPairs(&data.HospitalStats), "doctors", itoa(data.TotalDoctors))
		for _, bucket := range data.RiskByAge {
			pairs = append(pairs,
				fmt.Sprintf("age %v high/low risk", bucket["age"]),
				fmt.Sprintf("%v/%v", bucket["highRisk"], bucket["lowRisk"]))
		}

		return printView(cmd.OutOrStdout(), outputFormat, fieldView(data, pairs...))
	},
}

func hospitalStatsPairs(st *domain.HospitalStats) []string {
	return []string{
		"total patients", itoa(st.TotalPatients),
		"high risk", itoa(st.HighRiskPatients),
		"high risk %", ftoa(st.HighRiskRate),
		"readmitted", itoa(st.ReadmittedPatients),
		"readmission %", ftoa(st.ReadmissionRate),
	}
}

func doctorTable(doctors []domain.Doctor) view {
	rows := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		rows = append(rows, []string{d.ID, d.Name, d.Email, d.Specialization})
	}

	return view{
		Value:   doctors,
		Headers: []string{"ID", "NAME", "EMAIL", "SPECIALIZATION"},
		Rows:    rows,
	}
}

func init() {
	managementCmd.AddCommand(managementDoctorsCmd, managementDoctorPatientsCmd, managementPatientCmd,
		managementCountCmd, managementStatsCmd, managementAnalyticsCmd)
	rootCmd.AddCommand(managementCmd)
}
