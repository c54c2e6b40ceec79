package flagutil

// StringList is a comma separated list of strings which implements the
// flag.Value interface.
type StringList []string
