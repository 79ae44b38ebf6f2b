// # internal/engine/extract/extract_test.go
package extract

import (
	"strings"
	"testing"

	"github.com/leima-hit/dependency-analyzer/internal/core/errors"
	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
	"github.com/leima-hit/dependency-analyzer/internal/engine/filter"
)

func extractNames(t *testing.T, fn Func, doc, path string, f classfile.Filter) []string {
	t.Helper()
	got, err := fn(strings.NewReader(doc), path, f)
	if err != nil {
		t.Fatalf("extract %s: %v", path, err)
	}
	out := make([]string, 0, len(got))
	for _, c := range got {
		out = append(out, c.String())
	}
	return out
}

func assertNames(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestForFile_Dispatch(t *testing.T) {
	// Each probe document is only understood by one extractor.
	springDoc := `<bean><value>com.app.FromValue</value></bean>`
	hbmDoc := `<class name="com.app.FromName"/>`

	fn := ForFile("WEB-INF/applicationContext.xml")
	if fn == nil {
		t.Fatal("expected extractor for applicationContext.xml")
	}
	assertNames(t, extractNames(t, fn, springDoc, "applicationContext.xml", nil), "com.app.FromValue")

	fn = ForFile("conf/applicationContext-dao.xml")
	if fn == nil {
		t.Fatal("expected extractor for applicationContext-dao.xml")
	}

	fn = ForFile("com/app/Order.hbm.xml")
	if fn == nil {
		t.Fatal("expected extractor for Order.hbm.xml")
	}
	assertNames(t, extractNames(t, fn, hbmDoc, "Order.hbm.xml", nil), "com.app.FromName")

	for _, path := range []string{"Home.page", "Border.jwc", "table.script"} {
		fn = ForFile(path)
		if fn == nil {
			t.Fatalf("expected extractor for %s", path)
		}
		// Tapestry ignores name attributes and bare value text.
		assertNames(t, extractNames(t, fn, hbmDoc, path, nil))
	}
}

func TestForFile_Unrecognized(t *testing.T) {
	for _, path := range []string{
		"readme.txt",
		"beans.xml",
		"context.xml",
		"application.xml",
		"Order.hbm",
		"com/app/Foo.class",
		"applicationContext", // no .xml suffix
	} {
		if fn := ForFile(path); fn != nil {
			t.Errorf("expected no extractor for %s", path)
		}
	}
}

func TestSpring(t *testing.T) {
	doc := `<?xml version="1.0"?>
<beans>
  <bean id="svc" class="com.app.service.OrderService">
    <property name="dao" ref="orderDao"/>
    <constructor-arg> com.app.dao.OrderDao </constructor-arg>
    <property name="items">
      <list value-type="com.app.model.Order">
        <value>not a class</value>
        <value>com.app.model.LineItem</value>
      </list>
    </property>
    <property name="lookup">
      <map key-type="java.lang.String" value-type="com.app.model.Order$Builder"/>
    </property>
  </bean>
</beans>`

	got := extractNames(t, Spring, doc, "applicationContext.xml", nil)
	assertNames(t, got,
		"com.app.dao.OrderDao",
		"com.app.model.LineItem",
		"com.app.model.Order", // Order$Builder reduced and merged
		"com.app.service.OrderService",
		"java.lang.String",
	)
}

func TestSpring_Filtered(t *testing.T) {
	doc := `<beans>
  <bean class="com.app.A"/>
  <bean class="java.util.HashMap"/>
</beans>`

	got := extractNames(t, Spring, doc, "applicationContext.xml", filter.Packages("com.app"))
	assertNames(t, got, "com.app.A")
}

func TestHibernate(t *testing.T) {
	doc := `<?xml version="1.0"?>
<hibernate-mapping package="com.app.model">
  <class name="com.app.model.Order" table="orders" persister="com.app.persist.OrderPersister">
    <id name="id" type="long"/>
    <property name="total" type="com.app.types.MoneyType"/>
    <many-to-one name="customer" class="com.app.model.Customer"/>
    <subclass name="com.app.model.RushOrder" discriminator-value="R"/>
    <composite-id class="com.app.model.OrderKey$Part">
      <key-property name="region"/>
    </composite-id>
  </class>
</hibernate-mapping>`

	got := extractNames(t, Hibernate, doc, "Order.hbm.xml", nil)
	assertNames(t, got,
		"com.app.model.Customer",
		"com.app.model.Order",
		"com.app.model.OrderKey", // OrderKey$Part reduced
		"com.app.model.RushOrder",
		"com.app.persist.OrderPersister",
		"com.app.types.MoneyType",
	)
}

func TestTapestry_PageSpecification(t *testing.T) {
	doc := `<?xml version="1.0"?>
<page-specification class="com.app.web.HomePage">
  <component id="border" type="Border"/>
  <component id="insert" type="com.app.web.components.Insert"/>
  <property name="title" type="java.lang.String"/>
</page-specification>`

	got := extractNames(t, Tapestry, doc, "Home.page", nil)
	assertNames(t, got,
		"com.app.web.HomePage",
		"com.app.web.components.Insert",
		"java.lang.String",
	)
}

func TestTapestry_Script(t *testing.T) {
	doc := `<?xml version="1.0"?>
<script>
  <let key="handler">
    new com.app.web.script.RowHandler(this)
  </let>
  <set key="validator" expression="new com.app.web.script.Validator()"/>
  <input-symbol key="model" class="com.app.web.TableModel"/>
</script>`

	got := extractNames(t, Tapestry, doc, "view/table.script", nil)
	assertNames(t, got,
		"com.app.web.TableModel",
		"com.app.web.script.RowHandler",
		"com.app.web.script.Validator",
	)
}

func TestTapestry_PageIgnoresExpressions(t *testing.T) {
	// Constructor expressions only count in .script files.
	doc := `<page-specification>
  <binding name="x" expression="new com.app.web.Helper()"/>
</page-specification>`

	got := extractNames(t, Tapestry, doc, "Home.page", nil)
	assertNames(t, got)
}

func TestExtract_MalformedXML(t *testing.T) {
	broken := `<beans><bean class="com.app.A"`

	for _, tc := range []struct {
		name string
		fn   Func
	}{
		{"spring", Spring},
		{"hibernate", Hibernate},
		{"tapestry", Tapestry},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fn(strings.NewReader(broken), "broken.xml", nil)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !errors.IsCode(err, errors.CodeIO) {
				t.Fatalf("expected CodeIO, got %v", err)
			}
		})
	}
}

func TestExtract_EmptyFile(t *testing.T) {
	got := extractNames(t, Spring, "", "applicationContext.xml", nil)
	assertNames(t, got)
}

func TestExtract_UnknownEntitiesTolerated(t *testing.T) {
	doc := `<beans><bean class="com.app.A">&nbsp;</bean></beans>`

	got := extractNames(t, Spring, doc, "applicationContext.xml", nil)
	assertNames(t, got, "com.app.A")
}
