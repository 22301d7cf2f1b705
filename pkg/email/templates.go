package email

import (
	"fmt"
	"html"
	"time"
)

const defaultAppName = "MedCenter"

// OTPDisclosureData carries what the patient needs to recognise a history
// disclosure request.
type OTPDisclosureData struct {
	PatientName string
	DoctorName  string
	Code        string
	// TTL is how long the code stays valid. Zero means the code does not expire.
	TTL     time.Duration
	AppName string
}

// BuildOTPDisclosureEmail builds the message sent to a patient (or the
// guardian of a dependent) when a doctor asks to view their medical history.
func BuildOTPDisclosureEmail(to string, data OTPDisclosureData) Message {
	appName := orDefault(data.AppName, defaultAppName)
	patient := orDefault(data.PatientName, "there")
	doctor := orDefault(data.DoctorName, "your doctor")

	validity := "This code stays valid until it is used or a new one is issued."
	if data.TTL > 0 {
		validity = fmt.Sprintf("This code expires in %d minutes.", int(data.TTL.Minutes()))
	}

	subject := fmt.Sprintf("%s: medical history access code", appName)

	textBody := fmt.Sprintf(`Hi %s,

%s has requested access to your medical history at %s.

Share this code with them only if you consent:

%s

%s

If you did not visit %s today, please contact the front desk.`,
		patient, doctor, appName, data.Code, validity, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>%s has requested access to your medical history at %s.</p>
    <p>Share this code with them only if you consent:</p>
    <div style="background-color: #f0fdfa; border: 2px solid #0f766e; border-radius: 8px; padding: 20px; text-align: center; margin: 30px 0;">
        <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #0f766e;">%s</span>
    </div>
    <p style="color: #666; font-size: 14px;">%s</p>
    <p style="color: #666; font-size: 14px;">If you did not visit %s today, please contact the front desk.</p>
</body>
</html>`,
		html.EscapeString(patient), html.EscapeString(doctor), html.EscapeString(appName),
		html.EscapeString(data.Code), validity, html.EscapeString(appName))

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
		Headers:  map[string]string{HeaderCategory: CategoryHistoryOTP},
	}
}

// OverrideAuditData describes one emergency override of the disclosure gate.
type OverrideAuditData struct {
	LogID     int64
	DoctorID  int64
	PatientID int64
	CaseID    int64
	Reason    string
	At        time.Time
	AppName   string
}

// BuildOverrideAuditEmail builds the compliance notice sent after an override.
// The body is plain text so it survives archiving relays untouched.
func BuildOverrideAuditEmail(to string, data OverrideAuditData) Message {
	appName := orDefault(data.AppName, defaultAppName)

	subject := fmt.Sprintf("[%s] History override by doctor %d on patient %d", appName, data.DoctorID, data.PatientID)

	textBody := fmt.Sprintf(`An emergency override of the patient history access code was recorded.

Log entry:  %d
Doctor:     %d
Patient:    %d
Case:       %d
Time (UTC): %s

Reason given:
%s`,
		data.LogID, data.DoctorID, data.PatientID, data.CaseID,
		data.At.UTC().Format(time.RFC3339), data.Reason)

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		Headers:  map[string]string{HeaderCategory: CategoryOverrideAudit},
	}
}

// LabResultsReadyData is used to tell a doctor that a lab report was finalised.
type LabResultsReadyData struct {
	DoctorName string
	ReportID   int64
	CaseID     int64
	CaseToken  int64
	TestName   string
	AppName    string
}

func BuildLabResultsReadyEmail(to string, data LabResultsReadyData) Message {
	appName := orDefault(data.AppName, defaultAppName)
	doctor := orDefault(data.DoctorName, "Doctor")

	subject := fmt.Sprintf("%s: %s results ready (token #%d)", appName, data.TestName, data.CaseToken)

	textBody := fmt.Sprintf(`Hi %s,

The %s results for case #%d (token #%d) are ready.
Report id: %d

Open the case in %s to review them.`,
		doctor, data.TestName, data.CaseID, data.CaseToken, data.ReportID, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>The <strong>%s</strong> results for case #%d (token #%d) are ready.</p>
    <p style="color: #666; font-size: 14px;">Report id: %d</p>
</body>
</html>`,
		html.EscapeString(doctor), html.EscapeString(data.TestName), data.CaseID, data.CaseToken, data.ReportID)

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
		Headers:  map[string]string{HeaderCategory: CategoryLabResultsReady},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
