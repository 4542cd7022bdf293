package classfile

// AccessControlled carries an access bitmap and the predicates shared by
// classes, fields and methods.
type AccessControlled struct {
	Access AccessFlags
}

func (a AccessControlled) IsPublic() bool    { return a.Access.Has(AccPublic) }
func (a AccessControlled) IsFinal() bool     { return a.Access.Has(AccFinal) }
func (a AccessControlled) IsSynthetic() bool { return a.Access.Has(AccSynthetic) }

// Clazz is a loaded or built class file. The superclass name is empty only
// for java/lang/Object.
type Clazz struct {
	AccessControlled
	MinorVersion   uint16
	MajorVersion   uint16
	Pool           *Pool
	Name           string
	SuperclassName string
	Interfaces     []string
	Fields         []*Field
	Methods        []*Method
	Attributes     Attributes
}

func (c *Clazz) IsSuper() bool      { return c.Access.Has(AccSuper) }
func (c *Clazz) IsInterface() bool  { return c.Access.Has(AccInterface) }
func (c *Clazz) IsAbstract() bool   { return c.Access.Has(AccAbstract) }
func (c *Clazz) IsAnnotation() bool { return c.Access.Has(AccAnnotation) }
func (c *Clazz) IsEnum() bool       { return c.Access.Has(AccEnum) }

func (c *Clazz) SourceFile() string {
	return c.Attributes.SourceFile()
}

func (c *Clazz) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method finds a method by name and, unless descriptor is empty, by
// descriptor.
func (c *Clazz) Method(name, descriptor string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && (descriptor == "" || m.Descriptor == descriptor) {
			return m
		}
	}
	return nil
}

func (c *Clazz) MethodsNamed(name string) []*Method {
	var methods []*Method
	for _, m := range c.Methods {
		if m.Name == name {
			methods = append(methods, m)
		}
	}
	return methods
}
