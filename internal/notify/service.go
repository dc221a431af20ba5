package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/signintech/gopdf"

	"blood-donation-bot/internal/request"
)

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

// Service pushes new blood request alerts to the coordinator chat: a
// short text alert plus a printable PDF summary.
type Service struct {
	tgClient          TelegramClient
	coordinatorChatID int64
}

func NewService(tg TelegramClient, coordinatorChatID int64) *Service {
	return &Service{
		tgClient:          tg,
		coordinatorChatID: coordinatorChatID,
	}
}

func (s *Service) SendRequestAlert(ctx context.Context, br request.BloodRequest) error {
	text := fmt.Sprintf(
		"🩸 New blood request\n\nBlood type: %s\nBags: %d\nHospital: %s\nLocation: %s (%s zone)\nNeeded: %s at %s\nPatient problem: %s",
		br.BloodType, br.BagNeeded, br.Hospital, br.Location, br.Zone,
		br.NeededDate, br.NeededTime, br.PatientProblem,
	)
	if err := s.tgClient.SendMessage(s.coordinatorChatID, text); err != nil {
		return fmt.Errorf("send alert message: %w", err)
	}

	pdfData, err := buildRequestPDF(br)
	if err != nil {
		// The text alert already went out; a missing PDF is not worth
		// failing the whole notification.
		log.Printf("PDF summary for request %s failed: %v", br.ID, err)
		return nil
	}

	fileName := fmt.Sprintf("blood_request_%s.pdf", br.ID.String())
	if err := s.tgClient.SendDocument(s.coordinatorChatID, pdfData, fileName); err != nil {
		return fmt.Errorf("send request summary document: %w", err)
	}
	return nil
}

// Common DejaVuSans locations, probed in order (Alpine and Debian
// images keep it in different places).
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

func buildRequestPDF(br request.BloodRequest) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF (is ttf-dejavu installed?): %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Blood Donation Request")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Created: %s", br.CreatedAt.Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Request ID: %s", br.ID))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	lines := []string{
		fmt.Sprintf("Blood type: %s", br.BloodType),
		fmt.Sprintf("Bags needed: %d", br.BagNeeded),
		fmt.Sprintf("Hospital: %s", br.Hospital),
		fmt.Sprintf("Location: %s", br.Location),
		fmt.Sprintf("Zone: %s", br.Zone),
		fmt.Sprintf("Patient problem: %s", br.PatientProblem),
		fmt.Sprintf("Needed on: %s at %s", br.NeededDate, br.NeededTime),
		fmt.Sprintf("Hemoglobin: %s", br.HemoglobinPoint),
	}
	if br.AdditionalInfo != "" {
		lines = append(lines, fmt.Sprintf("Additional info: %s", br.AdditionalInfo))
	}
	for _, line := range lines {
		wrapped, _ := pdf.SplitText(line, 500)
		for _, l := range wrapped {
			pdf.Cell(nil, l)
			pdf.Br(14)
		}
	}

	pdf.SetY(270)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Generated %s", time.Now().Format("02.01.2006 15:04")))

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
