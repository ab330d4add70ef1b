package models

import "github.com/pocketbase/pocketbase/tools/types"

type Participant struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	TelegramChatID *int64         `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	Created        types.DateTime `db:"created" json:"created"`
}
