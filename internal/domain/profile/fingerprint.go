package profile

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/perfil/internal/domain/model"
)

// Fingerprint hashes the answer content of rs for studentID. Submission
// timestamps are excluded, so it changes only when answers change.
func Fingerprint(studentID string, rs Responses) uint64 {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	write(studentID)
	for _, inst := range model.Instruments {
		raw, ok := rs[inst]
		if !ok {
			write("-")
			continue
		}
		write(string(inst))
		ids := make([]string, 0, len(raw.Answers))
		for id := range raw.Answers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			write(id)
			write(string(raw.Answers[id]))
		}
		write("|")
	}
	return d.Sum64()
}
