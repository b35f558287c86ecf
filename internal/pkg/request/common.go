package request

// ByIDRequest is the common shape for endpoints taking a UUID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
