package walk

import (
	"fmt"
	"math"
	"strconv"
)

const defaultPetName = "펫"

// FormatDistance renders meters as whole meters below 1 km and as
// kilometres with one decimal otherwise.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return strconv.FormatFloat(meters/1000, 'f', 1, 64) + "km"
	}
	return fmt.Sprintf("%dm", int64(math.Round(meters)))
}

func Title(petName string) string {
	if petName == "" {
		petName = defaultPetName
	}
	return petName + "의 산책"
}

// Caption is the text of the post generated from a walk's photos.
func Caption(petName string, durationSec int, meters float64) string {
	return fmt.Sprintf("🐾 %s\n%d분 • %s", Title(petName), durationSec/60, FormatDistance(meters))
}
