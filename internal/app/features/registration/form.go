// internal/app/features/registration/form.go
package registration

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dalemusser/helferhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/helferhub/internal/app/system/inputval"
	"github.com/dalemusser/helferhub/internal/app/system/normalize"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/domain/schedule"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShirtSizes are the choices offered when an event asks for shirt sizes.
var ShirtSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// RegisterInput defines validation rules for the public registration form.
type RegisterInput struct {
	Firstname            string   `validate:"required,max=200" label:"First name"`
	Surname              string   `validate:"required,max=200" label:"Surname"`
	Email                string   `validate:"required,email,max=254" label:"E-mail"`
	Phone                string   `validate:"max=40" label:"Mobile phone"`
	Shirt                string   `validate:"omitempty,oneof=XS S M L XL XXL" label:"T-shirt"`
	Vegetarian           bool     `label:"Vegetarian"`
	InfectionInstruction string   `validate:"omitempty,oneof=valid needed upcoming" label:"Instruction for the handling of food"`
	Comment              string   `validate:"max=2000" label:"Comment"`
	PrivacyStatement     bool     `validate:"accepted" label:"Privacy statement"`
	Shifts               []string `validate:"min=1,dive,objectid" label:"Shifts"`
}

// RegisterForm binds and checks one submission. It is scoped to the event
// and to the offered shifts: the link's shifts in link mode, otherwise the
// event's public and unblocked shifts.
type RegisterForm struct {
	Event   models.Event
	Jobs    []models.Job
	Offered []models.Shift
	Link    bool

	Input  RegisterInput
	Errors *inputval.Result

	selected []models.Shift
}

// NewRegisterForm builds a form. When link is false, shifts of non-public
// jobs and blocked shifts are dropped from offered.
func NewRegisterForm(ev models.Event, jobs []models.Job, offered []models.Shift, link bool) *RegisterForm {
	f := &RegisterForm{Event: ev, Jobs: jobs, Link: link, Errors: &inputval.Result{}}
	offered = schedule.In(offered, ev.Location())
	if link {
		f.Offered = offered
		return f
	}
	public := make(map[primitive.ObjectID]bool, len(jobs))
	for _, j := range jobs {
		public[j.ID] = j.Public
	}
	for _, sh := range offered {
		if public[sh.JobID] && !sh.Blocked {
			f.Offered = append(f.Offered, sh)
		}
	}
	return f
}

// Bind reads the posted values into Input.
func (f *RegisterForm) Bind(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	f.Input = RegisterInput{
		Firstname:            normalize.Name(r.PostFormValue("firstname")),
		Surname:              normalize.Name(r.PostFormValue("surname")),
		Email:                normalize.Email(r.PostFormValue("email")),
		Phone:                normalize.Text(r.PostFormValue("phone")),
		Vegetarian:           r.PostFormValue("vegetarian") == "on",
		InfectionInstruction: normalize.Text(r.PostFormValue("infection_instruction")),
		Comment:              normalize.Text(r.PostFormValue("comment")),
		PrivacyStatement:     r.PostFormValue("privacy_statement") == "on",
		Shifts:               r.PostForm["shifts"],
	}
	if f.Event.AskShirt {
		f.Input.Shirt = normalize.Shirt(r.PostFormValue("shirt"))
	}
	return nil
}

// Validate checks the bound input. counts holds the registered helpers per
// offered shift; existing holds helpers of this event with the same email.
func (f *RegisterForm) Validate(counts map[primitive.ObjectID]int, existing []models.Helper) bool {
	f.Errors = inputval.Validate(f.Input)
	if f.Event.AskShirt && f.Input.Shirt == "" {
		f.Errors.Add("Shirt", "T-shirt is required.")
	}
	if len(existing) > 0 {
		f.Errors.Add("Email", "You are already registered for this event with this e-mail address.")
	}
	f.checkShifts(counts)
	return !f.Errors.HasErrors()
}

func (f *RegisterForm) checkShifts(counts map[primitive.ObjectID]int) {
	offered := make(map[string]models.Shift, len(f.Offered))
	for _, sh := range f.Offered {
		offered[sh.ID.Hex()] = sh
	}

	f.selected = f.selected[:0]
	seen := map[string]bool{}
	for _, id := range f.Input.Shifts {
		if seen[id] {
			continue
		}
		seen[id] = true
		sh, ok := offered[id]
		if !ok {
			f.Errors.Add("Shifts", "A selected shift is not available.")
			return
		}
		if sh.IsFull(counts[sh.ID]) {
			f.Errors.Add("Shifts", fmt.Sprintf("The shift %s is already full.", f.shiftLabel(sh)))
			continue
		}
		f.selected = append(f.selected, sh)
	}

	for i := range f.selected {
		for _, other := range f.selected[i+1:] {
			if f.selected[i].Overlaps(other) {
				f.Errors.Add("Shifts", fmt.Sprintf("The shifts %s and %s overlap.",
					f.shiftLabel(f.selected[i]), f.shiftLabel(other)))
			}
		}
	}

	if f.Input.InfectionInstruction == "" && f.needsInfectionInstruction() {
		f.Errors.Add("InfectionInstruction", "Instruction for the handling of food is required.")
	}
}

func (f *RegisterForm) needsInfectionInstruction() bool {
	for _, sh := range f.selected {
		if j, ok := f.job(sh.JobID); ok && j.InfectionInstruction {
			return true
		}
	}
	return false
}

func (f *RegisterForm) job(id primitive.ObjectID) (models.Job, bool) {
	for _, j := range f.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return models.Job{}, false
}

func (f *RegisterForm) shiftLabel(sh models.Shift) string {
	j, _ := f.job(sh.JobID)
	label := j.Name
	if sh.Name != "" {
		label += " (" + sh.Name + ")"
	}
	return label + ", " + sh.Begin.Format("Mon 2 Jan 15:04")
}

// Helper returns the record to persist. Call only after Validate succeeded.
func (f *RegisterForm) Helper(now time.Time) models.Helper {
	ids := make([]primitive.ObjectID, 0, len(f.selected))
	for _, sh := range f.selected {
		ids = append(ids, sh.ID)
	}
	in := f.Input
	return models.Helper{
		EventID:              f.Event.ID,
		Firstname:            in.Firstname,
		Surname:              in.Surname,
		Email:                in.Email,
		Phone:                in.Phone,
		Shirt:                in.Shirt,
		Vegetarian:           f.Event.AskVegetarian && in.Vegetarian,
		InfectionInstruction: in.InfectionInstruction,
		Comment:              in.Comment,
		PrivacyStatement:     in.PrivacyStatement,
		Validated:            !f.Event.MailValidation,
		Shifts:               ids,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// OfferedIDs returns the ids of all offered shifts.
func (f *RegisterForm) OfferedIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(f.Offered))
	for _, sh := range f.Offered {
		ids = append(ids, sh.ID)
	}
	return ids
}

/*─────────────────────────────────────────────────────────────────────────────*
| View model                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type jobChoice struct {
	Name                 string
	Description          template.HTML
	InfectionInstruction bool
	Days                 []dayChoice
}

type dayChoice struct {
	Date   string
	Shifts []shiftChoice
}

type shiftChoice struct {
	ID      string
	Name    string
	Time    string
	Free    int
	Full    bool
	Checked bool
}

// Choices groups the offered shifts by job (in job order) and day.
func (f *RegisterForm) Choices(counts map[primitive.ObjectID]int) []jobChoice {
	checked := map[string]bool{}
	for _, id := range f.Input.Shifts {
		checked[id] = true
	}

	byJob := map[primitive.ObjectID][]models.Shift{}
	for _, sh := range f.Offered {
		byJob[sh.JobID] = append(byJob[sh.JobID], sh)
	}

	var out []jobChoice
	for _, j := range f.Jobs {
		shifts, ok := byJob[j.ID]
		if !ok {
			continue
		}
		jc := jobChoice{
			Name:                 j.Name,
			Description:          htmlsanitize.Description(j.Description),
			InfectionInstruction: j.InfectionInstruction,
		}
		for _, d := range schedule.ShiftsByDay(shifts) {
			dc := dayChoice{Date: d.Date.Format("Monday, 2 January 2006")}
			for _, sh := range d.Shifts {
				n := counts[sh.ID]
				dc.Shifts = append(dc.Shifts, shiftChoice{
					ID:      sh.ID.Hex(),
					Name:    sh.Name,
					Time:    sh.Begin.Format("15:04") + " - " + sh.End.Format("15:04"),
					Free:    sh.FreeSlots(n),
					Full:    sh.IsFull(n),
					Checked: checked[sh.ID.Hex()],
				})
			}
			jc.Days = append(jc.Days, dc)
		}
		out = append(out, jc)
	}
	return out
}
