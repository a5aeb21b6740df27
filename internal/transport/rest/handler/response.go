package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blastroyale/partysync/internal/directory"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError emits a directory fault as JSON with a matching status code, so
// clients can rebuild the typed error from the body. Anything else is an
// internal failure.
func writeError(w http.ResponseWriter, err error) {
	var derr *directory.Error
	if errors.As(err, &derr) {
		writeJSON(w, statusForCode(derr.Code), derr)
		return
	}
	writeJSON(w, http.StatusBadRequest, &directory.Error{
		Code:    "invalid_request",
		Message: err.Error(),
	})
}

func statusForCode(code directory.Code) int {
	switch code {
	case directory.CodeGroupNotFound, directory.CodeMemberNotInGroup, directory.CodeMemberNotFound:
		return http.StatusNotFound
	case directory.CodeNotSubscribed, directory.CodeBanned, directory.CodeNotAuthorized:
		return http.StatusForbidden
	case directory.CodeAlreadyJoined, directory.CodeGroupFull:
		return http.StatusConflict
	case directory.CodeConnection:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
