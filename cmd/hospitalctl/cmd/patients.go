package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/domain"
)

var patientFlags struct {
	name                 string
	address              string
	age                  int
	gender               string
	bmi                  float64
	cholesterol          float64
	bloodPressure        string
	diabetes             string
	hypertension         string
	medicationCount      int
	lengthOfStay         int
	dischargeDestination string
	phone                string
	email                string
	message              string
}

var patientsCmd = &cobra.Command{
	Use:     "patients",
	Aliases: []string{"patient"},
	Short:   "Manage your patients",
}

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your patients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/patients"); err != nil {
			return err
		}

		patients, err := app.API.Patients().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list patients: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, patientTable(patients))
	},
}

var patientsGetCmd = &cobra.Command{
	Use:   "get <patient-id>",
	Short: "Show one patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/patients/"+args[0]); err != nil {
			return err
		}

		p, err := app.API.Patients().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load patient: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, patientView(p))
	},
}

var patientsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/patients/add"); err != nil {
			return err
		}

		var in domain.PatientInput
		if err := applyPatientFlags(cmd, &in); err != nil {
			return err
		}

		p, err := app.API.Patients().Add(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to add patient: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, patientView(p))
	},
}

var patientsUpdateCmd = &cobra.Command{
	Use:   "update <patient-id>",
	Short: "Change a patient's record; unset flags keep their current values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		if err := openPage(ctx, "/patients/"+id+"/edit"); err != nil {
			return err
		}

		current, err := app.API.Patients().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load patient: %s", apiclient.Message(err))
		}

		in := inputFromPatient(current)
		if err := applyPatientFlags(cmd, &in); err != nil {
			return err
		}

		p, err := app.API.Patients().Update(ctx, id, in)
		if err != nil {
			return fmt.Errorf("failed to update patient: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, patientView(p))
	},
}

var patientsDeleteCmd = &cobra.Command{
	Use:   "delete <patient-id>",
	Short: "Delete a patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/patients/"+args[0]); err != nil {
			return err
		}

		if err := app.API.Patients().Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete patient: %s", apiclient.Message(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Patient %s deleted.\n", args[0])

		return nil
	},
}

var patientsMessageCmd = &cobra.Command{
	Use:   "message <patient-id>",
	Short: "Send a follow-up message to a patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendFollowup(cmd, args[0], app.API.Patients().SendMessage)
	},
}

var patientsSMSCmd = &cobra.Command{
	Use:   "sms <patient-id>",
	Short: "Send a follow-up SMS to a patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendFollowup(cmd, args[0], app.API.Patients().SendFollowupSMS)
	},
}

var patientsMessagesCmd = &cobra.Command{
	Use:   "messages <patient-id>",
	Short: "List follow-up messages sent to a patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := openPage(ctx, "/patients/"+args[0]); err != nil {
			return err
		}

		msgs, err := app.API.Patients().Messages(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load messages: %s", apiclient.Message(err))
		}

		rows := make([][]string, 0, len(msgs))
		for _, m := range msgs {
			rows = append(rows, []string{formatTime(m.CreatedAt), m.Message})
		}

		return printView(cmd.OutOrStdout(), outputFormat, view{
			Value:   msgs,
			Headers: []string{"SENT", "MESSAGE"},
			Rows:    rows,
		})
	},
}

type sendFunc func(ctx context.Context, id, message string) (*apiclient.StatusResponse, error)

func sendFollowup(cmd *cobra.Command, id string, send sendFunc) error {
	ctx := cmd.Context()
	if err := openPage(ctx, "/patients/"+id); err != nil {
		return err
	}

	text, err := newPrompter(cmd).value(patientFlags.message, "message")
	if err != nil {
		return err
	}

	resp, err := send(ctx, id, text)
	if err != nil {
		return fmt.Errorf("failed to send message: %s", apiclient.Message(err))
	}

	return printView(cmd.OutOrStdout(), outputFormat, statusView(resp))
}

func inputFromPatient(p *domain.Patient) domain.PatientInput {
	return domain.PatientInput{
		Name:                 p.Name,
		Address:              p.Address,
		Age:                  p.Age,
		Gender:               p.Gender,
		BMI:                  p.BMI,
		Cholesterol:          p.Cholesterol,
		BloodPressure:        p.BloodPressure,
		Diabetes:             p.Diabetes,
		Hypertension:         p.Hypertension,
		MedicationCount:      p.MedicationCount,
		LengthOfStay:         p.LengthOfStay,
		DischargeDestination: p.DischargeDestination,
		PhoneNumber:          p.PhoneNumber,
		Email:                p.Email,
	}
}

// applyPatientFlags copies every flag the user set onto in.
func applyPatientFlags(cmd *cobra.Command, in *domain.PatientInput) error {
	set := cmd.Flags().Changed

	if set("name") {
		in.Name = patientFlags.name
	}
	if set("address") {
		in.Address = patientFlags.address
	}
	if set("age") {
		in.Age = patientFlags.age
	}
	if set("gender") {
		in.Gender = patientFlags.gender
	}
	if set("bmi") {
		in.BMI = patientFlags.bmi
	}
	if set("cholesterol") {
		in.Cholesterol = patientFlags.cholesterol
	}
	if set("blood-pressure") {
		in.BloodPressure = patientFlags.bloodPressure
	}
	if set("medication-count") {
		in.MedicationCount = patientFlags.medicationCount
	}
	if set("length-of-stay") {
		in.LengthOfStay = patientFlags.lengthOfStay
	}
	if set("discharge-destination") {
		in.DischargeDestination = patientFlags.dischargeDestination
	}
	if set("phone") {
		in.PhoneNumber = patientFlags.phone
	}
	if set("email") {
		in.Email = patientFlags.email
	}

	var err error
	if set("diabetes") {
		if in.Diabetes, err = domain.ParseYesNo(patientFlags.diabetes); err != nil {
			return fmt.Errorf("--diabetes: %w", err)
		}
	}
	if set("hypertension") {
		if in.Hypertension, err = domain.ParseYesNo(patientFlags.hypertension); err != nil {
			return fmt.Errorf("--hypertension: %w", err)
		}
	}

	return nil
}

func patientTable(patients []domain.Patient) view {
	rows := make([][]string, 0, len(patients))
	for i := range patients {
		p := &patients[i]
		risk := ""
		if p.HighRisk() {
			risk = "HIGH"
		}
		rows = append(rows, []string{
			p.ID, p.Name, itoa(p.Age), p.Gender,
			ftoa(p.ReadmissionProbability * 100), risk,
		})
	}

	return view{
		Value:   patients,
		Headers: []string{"ID", "NAME", "AGE", "GENDER", "READMISSION %", "RISK"},
		Rows:    rows,
	}
}

func patientView(p *domain.Patient) view {
	return fieldView(p,
		"id", p.ID,
		"name", p.Name,
		"age", itoa(p.Age),
		"gender", p.Gender,
		"address", p.Address,
		"phone", p.PhoneNumber,
		"email", p.Email,
		"bmi", ftoa(p.BMI),
		"cholesterol", ftoa(p.Cholesterol),
		"blood pressure", p.BloodPressure,
		"diabetes", yesNo(bool(p.Diabetes)),
		"hypertension", yesNo(bool(p.Hypertension)),
		"medications", itoa(p.MedicationCount),
		"length of stay", itoa(p.LengthOfStay),
		"discharge", p.DischargeDestination,
		"readmitted", yesNo(p.Readmitted),
		"readmission %", ftoa(p.ReadmissionProbability*100),
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Local().Format(time.DateTime)
}

func addPatientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&patientFlags.name, "name", "", "patient's full name")
	f.StringVar(&patientFlags.address, "address", "", "home address")
	f.IntVar(&patientFlags.age, "age", 0, "age in years")
	f.StringVar(&patientFlags.gender, "gender", "", "Male, Female or Other")
	f.Float64Var(&patientFlags.bmi, "bmi", 0, "body mass index")
	f.Float64Var(&patientFlags.cholesterol, "cholesterol", 0, "cholesterol level")
	f.StringVar(&patientFlags.bloodPressure, "blood-pressure", "", "systolic/diastolic, e.g. 120/80")
	f.StringVar(&patientFlags.diabetes, "diabetes", "", "Yes or No")
	f.StringVar(&patientFlags.hypertension, "hypertension", "", "Yes or No")
	f.IntVar(&patientFlags.medicationCount, "medication-count", 0, "number of medications")
	f.IntVar(&patientFlags.lengthOfStay, "length-of-stay", 0, "length of stay in days")
	f.StringVar(&patientFlags.dischargeDestination, "discharge-destination", "", "e.g. Home, Nursing_Facility, Rehab")
	f.StringVar(&patientFlags.phone, "phone", "", "phone number for follow-up SMS")
	f.StringVar(&patientFlags.email, "email", "", "patient email")
}

func init() {
	addPatientFlags(patientsAddCmd)
	addPatientFlags(patientsUpdateCmd)
	_ = patientsAddCmd.MarkFlagRequired("name")

	for _, c := range []*cobra.Command{patientsMessageCmd, patientsSMSCmd} {
		c.Flags().StringVarP(&patientFlags.message, "text", "t", "", "message text (prompted when empty)")
	}

	patientsCmd.AddCommand(patientsListCmd, patientsGetCmd, patientsAddCmd, patientsUpdateCmd,
		patientsDeleteCmd, patientsMessageCmd, patientsMessagesCmd, patientsSMSCmd)
	rootCmd.AddCommand(patientsCmd)
}
