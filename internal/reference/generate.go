package reference

import (
	"fmt"
	"math/rand/v2"
)

var (
	mockGenders   = []string{"Male", "Female"}
	mockTeeth     = []string{"14", "22", "30", "3"}
	mockSurfaces  = []string{"MO", "DO", "O", "MOD"}
	mockRelations = []string{"Self", "Spouse", "Child"}
	mockInsurers  = []string{"Aetna", "Cigna", "Delta Dental", "MetLife"}
	mockProviders = []string{"Dr. Smith", "Dr. Patel", "Dr. Johnson"}
	mockFees      = []string{"95.00", "160.00", "185.00", "210.00", "225.00", "980.00", "1150.00"}
	mockStreets   = []string{"Maple Ave", "Oak St", "Pine Rd", "Cedar Ln", "Elm St", "Birch Blvd"}

	mockNotes = []string{
		"Patient has distal caries with pain on chewing.",
		"Old composite filling fractured, replacement needed.",
		"Deep occlusal decay noted during exam.",
		"Crown margin leaking, sensitivity present.",
		"Routine cleaning and checkup, no issues found.",
		"Patient complains of sensitivity on biting, fractured cusp suspected.",
		"Recurrent decay under old amalgam filling.",
		"Composite restoration worn out, needs replacement.",
	}
	mockTreatments = []string{
		"Tooth requires composite restoration.",
		"Recommended crown placement after buildup.",
		"Simple occlusal composite sufficient.",
		"Scaling and polishing done.",
		"Consulted for fractured tooth restoration.",
		"Amalgam filling planned for deep decay.",
		"Tooth isolated and composite placed.",
	}
)

// GeneratePatients builds a mock roster of count patients named
// "Patient 1".."Patient N". The same seed always yields the same roster.
func GeneratePatients(count int, seed uint64) []Patient {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	pick := func(opts []string) string { return opts[rng.IntN(len(opts))] }

	out := make([]Patient, 0, count)
	for i := 1; i <= count; i++ {
		name := fmt.Sprintf("Patient %d", i)
		relationship := pick(mockRelations)
		subscriber := name
		if relationship != "Self" {
			subscriber = fmt.Sprintf("Subscriber %d", i)
		}
		out = append(out, Patient{
			PatientID:      fmt.Sprintf("PMS%03d", i),
			Name:           name,
			DateOfBirth:    fmt.Sprintf("%02d-%02d-%d", 1+rng.IntN(28), 1+rng.IntN(12), 1950+rng.IntN(55)),
			Gender:         pick(mockGenders),
			ToothNumber:    pick(mockTeeth),
			Surface:        pick(mockSurfaces),
			ClinicalNote:   pick(mockNotes),
			Procedure:      pick(mockTreatments),
			Relationship:   relationship,
			SubscriberName: subscriber,
			SubscriberID:   fmt.Sprintf("SUB%06d", 100200+i),
			Fee:            pick(mockFees),
			Address:        fmt.Sprintf("%d %s, Springfield, IL 62701", 100+rng.IntN(900), pick(mockStreets)),
			Insurance:      pick(mockInsurers),
			Provider:       pick(mockProviders),
		})
	}
	return out
}
