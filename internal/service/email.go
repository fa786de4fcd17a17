package service

import (
	"fmt"
	"log"
	"strings"

	"go-rackstock-ws/internal/mailer"
	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
)

// EmailDispatcher sends at most one mail per (transaction, category),
// guarded by the persisted marker so retries and concurrent instances cannot
// double-send. Delivery failures are logged and swallowed.
type EmailDispatcher struct {
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	mail            mailer.Mailer
}

func NewEmailDispatcher(transactionRepo repository.TransactionRepository, userRepo repository.UserRepository, mail mailer.Mailer) *EmailDispatcher {
	return &EmailDispatcher{
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		mail:            mail,
	}
}

// SendTransactionEmail resolves the admin recipient list and delivers the
// templated mail for the category, once.
func (d *EmailDispatcher) SendTransactionEmail(transaction *model.Transaction, category string, attachments []mailer.Attachment) {
	recipients, err := d.userRepo.FindEmailsByRole(model.RoleAdmin)
	if err != nil || len(recipients) == 0 {
		// No resolvable recipient list: skip without consuming the marker.
		if err != nil {
			log.Printf("transaction %s: resolve mail recipients: %v", transaction.Code, err)
		}
		return
	}

	first, err := d.transactionRepo.MarkEmailSent(transaction.ID, category)
	if err != nil {
		log.Printf("transaction %s: email marker: %v", transaction.Code, err)
		return
	}
	if !first {
		return
	}

	msg := mailer.Message{
		To:          recipients,
		Subject:     fmt.Sprintf("[Rackstock] %s %s", strings.ToUpper(string(transaction.Direction)), transaction.Code),
		HTML:        renderTransactionEmail(transaction, category),
		Attachments: attachments,
	}
	if err := d.mail.Send(msg); err != nil {
		log.Printf("transaction %s: send mail: %v", transaction.Code, err)
	}
}

func renderTransactionEmail(transaction *model.Transaction, category string) string {
	var b strings.Builder
	title := "Stock movement recorded"
	if category == model.EmailOrderCompleted {
		title = "Order completed"
	}
	fmt.Fprintf(&b, "<h2>%s</h2>", title)
	fmt.Fprintf(&b, "<p>Transaction <strong>%s</strong> (%s, %s)</p>", transaction.Code, transaction.Direction, transaction.Status)
	b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Product</th><th>Qty</th><th>Prev</th><th>New</th></tr>")
	for _, item := range transaction.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>", name, item.Quantity, item.PreviousStock, item.NewStock)
	}
	b.WriteString("</table>")
	if transaction.Message != "" {
		fmt.Fprintf(&b, "<p>%s</p>", transaction.Message)
	}
	return b.String()
}
