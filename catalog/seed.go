package catalog

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

var toolKinds = []string{
	"Endmill", "Drill", "Tap", "Reamer", "Insert", "Boring Bar",
	"Face Mill", "Chamfer Mill", "Thread Mill", "Spot Drill",
}

// SeedDemo generates n plausible catalog tools for dev and demo use.
func SeedDemo(n int) []*Tool {
	out := make([]*Tool, 0, n)
	for i := 0; i < n; i++ {
		kind := gofakeit.RandomString(toolKinds)
		out = append(out, &Tool{
			ID:           uuid.NewString(),
			Name:         fmt.Sprintf("%s %s", gofakeit.Numerify(`#/#"`), kind),
			PartNumber:   gofakeit.Numerify("PN-#####"),
			Manufacturer: gofakeit.Company(),
		})
	}
	return out
}
