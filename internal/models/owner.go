package models

// Owner identifies who a journal entry belongs to. The zero value is a guest.
type Owner struct {
	UserID int64
}

// Guest returns the owner used for unauthenticated callers.
func Guest() Owner {
	return Owner{}
}

// UserOwner returns the owner for an authenticated user id.
func UserOwner(userID int64) Owner {
	if userID <= 0 {
		return Guest()
	}
	return Owner{UserID: userID}
}

func (o Owner) IsGuest() bool {
	return o.UserID <= 0
}
