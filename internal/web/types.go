package web

// DashboardData is what the teacher page needs at render time. Rows are
// fetched by the page itself.
type DashboardData struct {
	User          string
	TokensEnabled bool
}
