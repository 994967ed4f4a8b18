package schema

// Credentials is a validated username/password pair.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Registration validates credentials for a new account. The password
// limit is the longest input bcrypt accepts.
func Registration(raw map[string]any) (Credentials, error) {
	r := newReader(raw)
	c := Credentials{
		Username: r.str("username", true),
		Password: rawString(r, "password"),
	}
	r.check(&c)
	return c, r.err()
}

// Login only checks that both fields are present.
func Login(raw map[string]any) (Credentials, error) {
	r := newReader(raw)
	c := Credentials{
		Username: r.str("username", true),
		Password: rawString(r, "password"),
	}
	return c, r.err()
}

// PasswordChange validates {currentPassword, newPassword}.
func PasswordChange(raw map[string]any) (current, next string, err error) {
	r := newReader(raw)
	current = rawString(r, "currentPassword")
	next = rawString(r, "newPassword")
	if next != "" {
		r.checkVar("newPassword", next, "min=8,max=72")
	}
	return current, next, r.err()
}

// rawString reads a required string without trimming it; whitespace is
// significant in passwords.
func rawString(r *reader, key string) string {
	v, ok := r.lookup(key, true)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		r.fail(key, MsgInvalidFormat)
		return ""
	}
	if s == "" {
		r.fail(key, MsgRequired)
	}
	return s
}
