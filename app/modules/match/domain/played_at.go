package matchdomain

import (
	"strings"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// futureTolerance absorbs clock skew between reporting clients and the server.
const futureTolerance = time.Minute

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	return w
}()

// ParsePlayedAt resolves when a match was played. Empty input means now;
// RFC 3339 timestamps and phrases such as "yesterday 7pm" are accepted.
// Times in the future are rejected.
func ParsePlayedAt(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now, nil
	}

	played, err := time.Parse(time.RFC3339, input)
	if err != nil {
		r, perr := parser.Parse(strings.ToLower(input), now)
		if perr != nil || r == nil {
			return time.Time{}, apperrors.Validation("could not understand played_at %q", input)
		}
		played = r.Time
	}

	played = played.UTC()
	if played.After(now.Add(futureTolerance)) {
		return time.Time{}, apperrors.Validation("played_at %s is in the future", played.Format(time.RFC3339))
	}
	return played, nil
}
