package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate = validator.New()
	sanitize = bluemonday.StrictPolicy()
)

func (o *Orchestrator) SelectAddress(ctx context.Context, addressID int64) (View, error) {
	o.mu.Lock()
	if err := o.beginEditLocked(); err != nil {
		o.mu.Unlock()
		return o.failView(ctx, "select_address", err)
	}
	found := false
	for _, a := range o.st.addresses {
		if a.ID == addressID {
			found = true
			break
		}
	}
	if !found {
		o.mu.Unlock()
		return o.failView(ctx, "select_address", validation(msgUnknownAddress))
	}
	o.st.selectedID = addressID
	o.st.lastErr = nil
	v := o.viewLocked()
	o.mu.Unlock()
	return v, nil
}

// AddAddress creates an address and selects it when nothing is selected yet.
func (o *Orchestrator) AddAddress(ctx context.Context, in domain.DeliveryAddress) (domain.DeliveryAddress, error) {
	in, err := cleanAddress(in)
	if err != nil {
		return domain.DeliveryAddress{}, o.fail(ctx, "add_address", err)
	}

	res := o.backend.AddAddress(ctx, o.session.UserID, in)
	if ctx.Err() != nil {
		return domain.DeliveryAddress{}, ctx.Err()
	}
	if !res.Success {
		return domain.DeliveryAddress{}, o.fail(ctx, "add_address", res.Err())
	}

	if err := o.loadAddresses(ctx); err != nil {
		return res.Data, err
	}

	o.mu.Lock()
	if o.st.selectedID == 0 && res.Data.ID != 0 && !o.stateLocked().InFlight() {
		o.st.selectedID = res.Data.ID
		if _, ok := o.selectedLocked(); !ok {
			o.st.selectedID = 0
		}
	}
	o.mu.Unlock()
	return res.Data, nil
}

func (o *Orchestrator) UpdateAddress(ctx context.Context, in domain.DeliveryAddress) (domain.DeliveryAddress, error) {
	if in.ID <= 0 {
		return domain.DeliveryAddress{}, o.fail(ctx, "update_address", validation(msgUnknownAddress))
	}
	in, err := cleanAddress(in)
	if err != nil {
		return domain.DeliveryAddress{}, o.fail(ctx, "update_address", err)
	}

	res := o.backend.UpdateAddress(ctx, in)
	if ctx.Err() != nil {
		return domain.DeliveryAddress{}, ctx.Err()
	}
	if !res.Success {
		return domain.DeliveryAddress{}, o.fail(ctx, "update_address", res.Err())
	}
	return res.Data, o.loadAddresses(ctx)
}

// DeleteAddress removes an address; a selection pointing at it is cleared.
func (o *Orchestrator) DeleteAddress(ctx context.Context, addressID int64) (View, error) {
	o.mu.Lock()
	if o.st.selectedID == addressID {
		if err := o.beginEditLocked(); err != nil {
			o.mu.Unlock()
			return o.failView(ctx, "delete_address", err)
		}
	}
	o.mu.Unlock()

	res := o.backend.DeleteAddress(ctx, addressID)
	if ctx.Err() != nil {
		return o.View(), ctx.Err()
	}
	if !res.Success {
		return o.failView(ctx, "delete_address", res.Err())
	}

	o.mu.Lock()
	if o.st.selectedID == addressID {
		o.st.selectedID = 0
	}
	o.mu.Unlock()

	err := o.loadAddresses(ctx)
	return o.View(), err
}

// cleanAddress strips markup from free-text fields and validates the result.
func cleanAddress(in domain.DeliveryAddress) (domain.DeliveryAddress, error) {
	in.Address = strings.TrimSpace(sanitize.Sanitize(in.Address))
	in.Landmark = strings.TrimSpace(sanitize.Sanitize(in.Landmark))
	in.City = strings.TrimSpace(sanitize.Sanitize(in.City))
	in.State = strings.TrimSpace(sanitize.Sanitize(in.State))
	in.Pin = strings.TrimSpace(in.Pin)
	in.Mobile = strings.TrimSpace(in.Mobile)

	if err := validate.Struct(in); err != nil {
		return in, validation(describe(err))
	}
	return in, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid address"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please enter %s", field)
	case "len":
		return fmt.Sprintf("%s must be %s digits", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", fe.Field())
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
