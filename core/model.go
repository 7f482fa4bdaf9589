package core

import (
	"time"
)

// Character is a personagem stored in the characters table
// id is assigned by the database sequence and is never reused
type Character struct {
	ID             uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	CPF            *int64    `json:"cpf" gorm:"column:cpf;type:bigint"`
	Nome           string    `json:"nome" gorm:"type:text;not null"`
	DataNascimento *string   `json:"dataNascimento" gorm:"type:text"`
	Serie          *string   `json:"serie" gorm:"type:text"`
	CDate          time.Time `json:"-" gorm:"column:cdate;->;<-:create;autoCreateTime"`
	MDate          time.Time `json:"-" gorm:"column:mdate;autoUpdateTime"`
}

// CharacterInput is the request body used to create or replace a character.
// Fields are pointers so that an absent field can be told apart from a zero value.
type CharacterInput struct {
	CPF            *int64  `json:"cpf"`
	Nome           *string `json:"nome" validate:"required"`
	DataNascimento *string `json:"dataNascimento"`
	Serie          *string `json:"serie"`
}

// ToCharacter builds a character from the input. Callers must validate first.
func (i CharacterInput) ToCharacter() Character {
	character := Character{
		CPF:            i.CPF,
		DataNascimento: i.DataNascimento,
		Serie:          i.Serie,
	}
	if i.Nome != nil {
		character.Nome = *i.Nome
	}
	return character
}
