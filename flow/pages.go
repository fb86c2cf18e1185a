package flow

import "net/http"

// The callback listener serves minimal static pages so the user gets feedback in
// the browser tab Twitch redirected them to, instead of a blank window.

const successPage = `<!DOCTYPE html>
<html>
  <head>
    <title>Login Successful</title>
  </head>
  <body style="font-family:sans-serif;text-align:center;margin-top:10em;">
    <h1>Login successful!</h1>
    <p>You have successfully connected your Twitch account.</p>
    <p>You can close this window and return to the application.</p>
    <script>
      setTimeout(window.close, 0)
    </script>
  </body>
</html>
`

const failurePage = `<!DOCTYPE html>
<html>
  <head>
    <title>Login Failed</title>
  </head>
  <body style="font-family:sans-serif;text-align:center;margin-top:10em;">
    <h1>Login Failed</h1>
    <p style="color:red;">There was an error during the login process. Please check the application for details.</p>
    <p>You may now close this window.</p>
  </body>
</html>
`

const waitingPage = `<!DOCTYPE html>
<html>
  <head>
    <title>Waiting for authorization...</title>
  </head>
  <body style="font-family:sans-serif;text-align:center;margin-top:10em;">
    <h1>Waiting for Twitch authorization...</h1>
  </body>
</html>
`

func servePage(res http.ResponseWriter, page string) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(page))
}
