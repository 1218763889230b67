package bridge

import "focusbridge/internal/platform"

// ResolveForeground picks the record with the greatest LastTimeUsed.
// When several records share the maximum the last one encountered wins.
func ResolveForeground(records []platform.UsageRecord) (platform.UsageRecord, bool) {
	var (
		top   platform.UsageRecord
		found bool
	)
	for _, record := range records {
		if !found || record.LastTimeUsed >= top.LastTimeUsed {
			top = record
			found = true
		}
	}
	return top, found
}
