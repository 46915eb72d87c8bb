package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/formloom/formloom-backend/internal/pkg/apierr"
)

// ETag tokens are pure functions of entity identity and state_version: no
// clock or random input, so re-reading an unchanged entity always yields the
// same token, and the token changes iff the version changes.

func AnswerETag(setID, questionID uuid.UUID, stateVersion int64) string {
	return entityTag("ans", fmt.Sprintf("%s:%s:%d", setID, questionID, stateVersion))
}

func ResponseSetETag(setID uuid.UUID, stateVersion int64) string {
	return entityTag("set", fmt.Sprintf("%s:%d", setID, stateVersion))
}

// ScreenViewETag hashes the serialized filtered+hydrated screen content.
func ScreenViewETag(content []byte) string {
	return entityTag("scr", string(content))
}

func entityTag(scope, material string) string {
	sum := sha256.Sum256([]byte(material))
	return fmt.Sprintf(`W/"%s-%s"`, scope, hex.EncodeToString(sum[:])[:16])
}

// CheckPrecondition enforces the If-Match contract: a missing token is a
// malformed request, a mismatched one is a concurrency conflict. Either way
// the caller must short-circuit before touching the answer store.
func CheckPrecondition(provided, current string) *apierr.Error {
	if provided == "" {
		return apierr.Newf(http.StatusBadRequest, CodeIfMatchMissing, "If-Match header is required")
	}
	if provided != current {
		return apierr.Newf(http.StatusConflict, CodeIfMatchStale, "If-Match does not match current entity state")
	}
	return nil
}
