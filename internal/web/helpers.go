package web

func jsBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
