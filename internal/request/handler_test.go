package request

import (
	"testing"
	"time"
)

func TestCreateRequestFormValidation(t *testing.T) {
	t.Parallel()

	valid := CreateRequestForm{
		BloodType:      "AB-",
		Hospital:       "Square Hospital",
		Location:       "Panthapath, Dhaka",
		Zone:           "Tejgaon",
		PatientProblem: "accident, heavy blood loss",
		BagNeeded:      "2",
		NeededDate:     time.Now().AddDate(0, 0, 7).Format("02/01/2006"),
		NeededTime:     "14:30",
	}
	if msg := valid.validate(); msg != "" {
		t.Fatalf("valid form rejected: %s", msg)
	}

	cases := []struct {
		name   string
		mutate func(*CreateRequestForm)
	}{
		{"bad blood type", func(f *CreateRequestForm) { f.BloodType = "C+" }},
		{"short hospital", func(f *CreateRequestForm) { f.Hospital = "ab" }},
		{"short zone", func(f *CreateRequestForm) { f.Zone = "x" }},
		{"zero bags", func(f *CreateRequestForm) { f.BagNeeded = "0" }},
		{"past date", func(f *CreateRequestForm) { f.NeededDate = "01/01/2020" }},
		{"bad time", func(f *CreateRequestForm) { f.NeededTime = "25:00" }},
		{"bad hemoglobin", func(f *CreateRequestForm) { f.HemoglobinPoint = "3.0" }},
	}
	for _, tc := range cases {
		form := valid
		tc.mutate(&form)
		if msg := form.validate(); msg == "" {
			t.Errorf("%s: form accepted", tc.name)
		}
	}
}
