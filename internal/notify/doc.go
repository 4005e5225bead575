// Package notify delivers one-shot push/SMS notifications for alarm
// events over a hand-framed HTTPS exchange.
//
// Each notification is a single HTTP/1.1 POST to a Twilio-compatible
// messaging endpoint:
//
//   - Fresh TLS connection per message, never reused
//   - Request framed byte-for-byte (no net/http), Connection: Close
//   - Delivery classified by the leading digit of the response status code
//   - Bounded response wait that keeps servicing the panel source
//
// The bounded wait is the load-bearing part: the panel bus delivers data
// continuously and its decoder buffer is small, so the client polls the
// connection with short read deadlines and hands control back to the
// panel source between polls. A response that does not arrive within the
// configured timeout is treated as a failed delivery and the connection
// is discarded.
//
// Example configuration (in config.yaml):
//
//	notify:
//	  enabled: true
//	  host: "api.twilio.com"
//	  port: 443
//	  path: "/2010-04-01/Accounts/ACxxxx/Messages.json"
//	  auth_token: "base64credential"
//	  to: "16505551234"
//	  from: "16505556789"
//	  prefix: "Security system "
//	  timeout_ms: 3000
//
// Callers invoke Send once per event; there are no retries or queues.
package notify
