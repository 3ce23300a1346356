package backend

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/proto"
)

// ManualMember is a roster entry for someone without an account.
type ManualMember struct {
	Name string `json:"name" validate:"required,max=100"`
	Role string `json:"role" validate:"required,max=60"`
}

// TeamOptions are the attributes of a new team.
type TeamOptions struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	ProjectType models.ProjectType `json:"project_type" validate:"required,project_type"`
	LookingFor  []string           `json:"looking_for" validate:"max=20,dive,required,max=60"`
	// MaxMembers defaults to the configured capacity when zero.
	MaxMembers int `json:"max_members" validate:"gte=0,lte=50"`
	// Members are manual members listed after the creator.
	Members []ManualMember `json:"members" validate:"dive"`
}

// TeamPatch holds the team fields to change. Nil fields are left as is.
type TeamPatch struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	ProjectType *models.ProjectType `json:"project_type" validate:"omitempty,project_type"`
	LookingFor  *[]string           `json:"looking_for" validate:"omitempty,max=20,dive,required,max=60"`
	MaxMembers  *int                `json:"max_members" validate:"omitempty,gte=1,lte=50"`
}

// ProfileOptions are the editable fields of a profile.
type ProfileOptions struct {
	FullName    string        `json:"full_name" validate:"max=100"`
	School      models.School `json:"school" validate:"required,school"`
	Bio         *string       `json:"bio" validate:"omitempty,max=2000"`
	PhoneNumber *string       `json:"phone_number" validate:"omitempty,max=30"`
	Skills      []string      `json:"skills" validate:"max=50,dive,required,max=60"`
	Links       models.Links  `json:"links"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("project_type", func(fl validator.FieldLevel) bool {
		return models.ProjectType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("school", func(fl validator.FieldLevel) bool {
		return models.School(fl.Field().String()).Valid()
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates v and turns validation failures into an invalid argument
// error naming the offending fields.
func (d *Backend) check(v interface{}) error {
	err := d.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return proto.InvalidArgument(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", field, fe.Tag()))
		}
	}
	return proto.InvalidArgument("Invalid " + strings.Join(msgs, ", "))
}

type messageOptions struct {
	Message *string `json:"message" validate:"omitempty,max=1000"`
}
