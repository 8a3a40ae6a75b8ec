package models

type Account struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (a *Account) Validate() error {
	if a.ID <= 0 {
		return invalidf("account id %d", a.ID)
	}
	return nil
}
