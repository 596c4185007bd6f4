package handler

import (
	"html/template"
	"net/http"

	"github.com/rolewarden/rolewarden/internal/logger"
	"github.com/rolewarden/rolewarden/internal/verification"
)

// pageTemplate renders the small HTML page shown after the OAuth redirect.
// The flow continues inside Discord; this page only tells the user whether
// they can close the tab.
var pageTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; background: #2c2f33; color: #ffffff; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
.card { background: #23272a; border-radius: 8px; padding: 2rem 3rem; max-width: 28rem; text-align: center; }
h1 { font-size: 1.3rem; }
p { color: #b9bbbe; }
</style>
</head>
<body>
<div class="card">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</div>
</body>
</html>
`))

type callbackPage struct {
	Title   string
	Message string
}

// HandleOAuthCallback processes the provider redirect and renders a result
// page. Never echoes codes, tokens, or state values back to the client.
func HandleOAuthCallback(svc verification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, ErrMsgMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		outcome := svc.HandleCallback(r.Context(), verification.CallbackParams{
			Code:  q.Get("code"),
			State: q.Get("state"),
			Error: q.Get("error"),
		})

		page, status := pageFor(outcome)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := pageTemplate.Execute(w, page); err != nil {
			logger.FromContext(r.Context()).Error("Failed to render callback page", "error", err)
		}
	}
}

func pageFor(outcome *verification.CallbackOutcome) (callbackPage, int) {
	switch outcome.State {
	case verification.CallbackStored:
		return callbackPage{Title: TitleVerified, Message: MsgVerified}, http.StatusOK
	case verification.CallbackNoChannels:
		return callbackPage{Title: TitleNoChannels, Message: MsgNoChannels}, http.StatusOK
	case verification.CallbackBadState:
		return callbackPage{Title: TitleLinkRejected, Message: MsgLinkRejected}, http.StatusBadRequest
	case verification.CallbackUserMismatch:
		return callbackPage{Title: TitleWrongAccount, Message: MsgWrongAccount}, http.StatusBadRequest
	default:
		return callbackPage{Title: TitleProviderError, Message: MsgProviderError}, http.StatusBadGateway
	}
}
