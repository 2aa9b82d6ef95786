package model

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// AuthContext is the credential and addressing bundle the portal
// attaches to every webhook delivery. ApplicationToken is used for
// inbound verification only and is never logged or forwarded.
type AuthContext struct {
	PortalDomain     string
	APIBaseURL       string
	OAuthBaseURL     string
	MemberID         string
	ApplicationToken types.Secret
}

// Envelope is one inbound webhook request after decoding, before
// event-specific interpretation.
type Envelope struct {
	EventType types.EventType
	HandlerID string
	Timestamp int64
	Auth      AuthContext
	Data      Tree
}

// ParseEnvelope extracts the envelope from a canonical tree. A missing
// event type or auth context is a decode failure, not a valid envelope.
func ParseEnvelope(tree Tree) (*Envelope, error) {
	eventType, ok := tree.Lookup("event")
	if !ok || eventType == "" {
		return nil, goerr.Wrap(ErrDecode, "envelope has no event type")
	}

	auth, ok := tree.Sub("auth")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "envelope has no auth context", goerr.V("event", eventType))
	}

	env := &Envelope{
		EventType: types.EventType(eventType),
		Auth:      parseAuth(auth),
	}

	if handlerID, ok := tree.Lookup("event_handler_id"); ok {
		env.HandlerID = handlerID
	}
	if ts, ok := tree.Lookup("ts"); ok {
		// A garbled timestamp is not worth rejecting the event over
		if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
			env.Timestamp = n
		}
	}
	if data, ok := tree.Sub("data"); ok {
		env.Data = data
	} else {
		env.Data = Tree{}
	}

	return env, nil
}

func parseAuth(tree Tree) AuthContext {
	var auth AuthContext
	if v, ok := tree.Lookup("domain"); ok {
		auth.PortalDomain = v
	}
	if v, ok := tree.Lookup("client_endpoint"); ok {
		auth.APIBaseURL = v
	}
	if v, ok := tree.Lookup("server_endpoint"); ok {
		auth.OAuthBaseURL = v
	}
	if v, ok := tree.Lookup("member_id"); ok {
		auth.MemberID = v
	}
	if v, ok := tree.Lookup("application_token"); ok {
		auth.ApplicationToken = types.Secret(v)
	}
	return auth
}
