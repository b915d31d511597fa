package service

import "fmt"

func welcomeEmailTemplate(name, tasksURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Add your first task and ask for an AI suggestion when you get stuck:
%s

Free accounts include a handful of AI suggestions. Upgrade to Premium any time for unlimited ones.

Best,
The %s Team`, name, tasksURL, appName)

	return subject, body
}

func premiumActivatedEmailTemplate(name, tasksURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s Premium is active", appName)
	body := fmt.Sprintf(`Hi %s,

Thanks for upgrading! Your account now has unlimited AI suggestions and task exports.

Jump back in: %s

Best,
The %s Team`, name, tasksURL, appName)

	return subject, body
}

func exportReadyEmailTemplate(name, downloadURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s task export is ready", appName)
	body := fmt.Sprintf(`Hi %s,

Your task export is ready to download:
%s

The link expires soon, so grab it while you can.

Best,
The %s Team`, name, downloadURL, appName)

	return subject, body
}
