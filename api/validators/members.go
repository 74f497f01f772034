package validators

// MemberIDsRequest is the optional selection body of the batch endpoints.
// A missing or null member_ids selects every active member with a barcode.
type MemberIDsRequest struct {
	MemberIDs []string `json:"member_ids" validate:"omitempty,max=1000,dive,required,max=64"`
}
