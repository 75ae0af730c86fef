package http

import (
	"github.com/samber/lo"

	"github.com/vovakirdan/pollchat/internal/proto"
	"github.com/vovakirdan/pollchat/internal/store"
)

func toProtoMessage(msg *store.Message) proto.Message {
	return proto.Message{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.UTC(),
		UpdatedAt: msg.UpdatedAt.UTC(),
	}
}

// toProtoMessages never returns nil so an empty log encodes as [].
func toProtoMessages(msgs []*store.Message) []proto.Message {
	return lo.Map(msgs, func(msg *store.Message, _ int) proto.Message {
		return toProtoMessage(msg)
	})
}
