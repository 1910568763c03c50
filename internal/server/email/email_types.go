package email

type EmailInfo struct {
	FromName  string
	FromEmail string
	ToName    string
	ToEmail   string
	Subject   string
	HTMLBody  string
}
