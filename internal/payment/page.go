package payment

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/fjod/go_cart/storefront/domain"
)

var checkoutPage = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Name}} Payment</title>
    <script src="{{.ScriptURL}}"></script>
    <script>
      var sent = false;
      function send(msg) {
        if (sent) { return; }
        sent = true;
        var body = JSON.stringify(msg);
        if (window.ReactNativeWebView) {
          window.ReactNativeWebView.postMessage(body);
          return;
        }
        fetch({{.CallbackURL}}, {method: "POST", headers: {"Content-Type": "application/json"}, body: body});
      }
      function initiatePayment() {
        var options = {
          key: {{.Key}},
          amount: {{.Amount}},
          currency: {{.Currency}},
          name: {{.Name}},
          description: {{.Description}},
          order_id: {{.OrderID}},
          handler: function (response) {
            send({
              success: true,
              payment_id: response.razorpay_payment_id,
              order_id: response.razorpay_order_id,
              signature: response.razorpay_signature
            });
          },
          modal: {
            ondismiss: function () {
              send({success: false, error: {{.Cancelled}}});
            }
          }
        };
        var rzp = new Razorpay(options);
        rzp.on("payment.failed", function (response) {
          var err = response.error || {};
          send({
            success: false,
            error: err.description || "Payment failed",
            payment_id: (err.metadata || {}).payment_id
          });
        });
        rzp.open();
      }
    </script>
  </head>
  <body onload="initiatePayment()" style="display: flex; justify-content: center; align-items: center; height: 100vh;">
    <h3>Loading payment...</h3>
  </body>
</html>
`))

type pageData struct {
	ScriptURL   string
	CallbackURL string
	Key         string
	Amount      int64
	Currency    string
	Name        string
	Description string
	OrderID     string
	Cancelled   string
}

func (b *Bridge) render(s domain.PaymentSession) ([]byte, error) {
	var buf bytes.Buffer
	err := checkoutPage.Execute(&buf, pageData{
		ScriptURL:   b.cfg.ScriptURL,
		CallbackURL: b.callbackURL(s.GatewayOrderID),
		Key:         b.cfg.Key,
		Amount:      s.AmountMinorUnits,
		Currency:    b.cfg.Currency,
		Name:        b.cfg.Name,
		Description: fmt.Sprintf("Purchase Order #%d", s.BackendOrderID),
		OrderID:     s.GatewayOrderID,
		Cancelled:   CancelledByUser,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render checkout page: %w", err)
	}
	return buf.Bytes(), nil
}

func dataURL(page []byte) string {
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString(page)
}
