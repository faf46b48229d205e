package article

// Category is a category name with the number of articles filed under it.
type Category struct {
	Name     string
	Articles int
}
