package convo_test

import (
	"reflect"
	"testing"

	"github.com/etkecc/baibot/internal/baibot/convo"
)

func textMsg(author convo.Author, text string) convo.Message {
	return convo.Message{Author: author, Text: text}
}

func TestCombineConsecutive(t *testing.T) {
	imageMsg := convo.Message{
		Author: convo.AuthorUser,
		Text:   "look",
		Images: []convo.ImageAttachment{{Mime: "image/png", Data: []byte{1}}},
	}

	tests := []struct {
		name string
		in   []convo.Message
		want []convo.Message
	}{
		{
			name: "empty",
			in:   nil,
			want: []convo.Message{},
		},
		{
			name: "alternating untouched",
			in: []convo.Message{
				textMsg(convo.AuthorUser, "a"),
				textMsg(convo.AuthorAssistant, "b"),
				textMsg(convo.AuthorUser, "c"),
			},
			want: []convo.Message{
				textMsg(convo.AuthorUser, "a"),
				textMsg(convo.AuthorAssistant, "b"),
				textMsg(convo.AuthorUser, "c"),
			},
		},
		{
			name: "same-author run fused with newline",
			in: []convo.Message{
				textMsg(convo.AuthorUser, "a"),
				textMsg(convo.AuthorUser, "b"),
				textMsg(convo.AuthorUser, "c"),
				textMsg(convo.AuthorAssistant, "d"),
			},
			want: []convo.Message{
				textMsg(convo.AuthorUser, "a\nb\nc"),
				textMsg(convo.AuthorAssistant, "d"),
			},
		},
		{
			name: "attachment breaks the run",
			in: []convo.Message{
				textMsg(convo.AuthorUser, "a"),
				imageMsg,
				textMsg(convo.AuthorUser, "b"),
			},
			want: []convo.Message{
				textMsg(convo.AuthorUser, "a"),
				imageMsg,
				textMsg(convo.AuthorUser, "b"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convo.CombineConsecutive(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CombineConsecutive() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
