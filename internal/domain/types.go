package domain

import "github.com/google/uuid"

type UserID = uuid.UUID

func ParseUserID(s string) (UserID, error) { return uuid.Parse(s) }
