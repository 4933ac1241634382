package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ivy-tools/trial-harness/framework"
	"github.com/ivy-tools/trial-harness/trial"
)

// JUnitTrialLogger writes a JUnit XML file at the end of the run, with one test suite per test
// case and one test case per trial.
type JUnitTrialLogger struct {
	filePath   string
	properties map[string]string
	testNames  []string // preserves the order that the tests were run in
	tests      map[string]*jUnitTestStatus
	lock       sync.Mutex
}

type jUnitTestStatus struct {
	dir     string
	skipped string
	trials  []jUnitTrialStatus
}

type jUnitTrialStatus struct {
	result trial.Result
	output string
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitTrialLogger creates a logger that will write to filePath. The properties, such as
// the server command and iteration count, are copied into every test suite.
func NewJUnitTrialLogger(filePath string, properties map[string]string) *JUnitTrialLogger {
	return &JUnitTrialLogger{
		filePath:   filePath,
		properties: properties,
		tests:      make(map[string]*jUnitTestStatus),
	}
}

func (j *JUnitTrialLogger) status(testName string) *jUnitTestStatus {
	status, ok := j.tests[testName]
	if !ok {
		status = &jUnitTestStatus{}
		j.tests[testName] = status
		j.testNames = append(j.testNames, testName)
	}
	return status
}

func (j *JUnitTrialLogger) TrialStarted(tr trial.Trial, _ string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.status(tr.Test.Name()).dir = tr.Test.Dir()
}

func (j *JUnitTrialLogger) TrialFinished(result trial.Result, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.status(result.Trial.Test.Name())
	status.trials = append(status.trials, jUnitTrialStatus{
		result: result,
		output: debugOutput.ToString(""),
	})
}

func (j *JUnitTrialLogger) TestSkipped(testName string, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.status(testName).skipped = reason
}

func (j *JUnitTrialLogger) TestFinished(string, []trial.Result) {}

func (j *JUnitTrialLogger) EndLog(Results) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	var doc jUnitXMLDocument
	for _, name := range j.testNames {
		status := j.tests[name]
		suite := jUnitXMLTestSuite{
			Name:       fmt.Sprintf("trials: %s", name),
			Properties: j.xmlProperties(),
		}
		if status.skipped != "" {
			suite.TestCases = append(suite.TestCases, jUnitXMLTestCase{
				Classname:   status.dir,
				Name:        name,
				Time:        jUnitDurationString(0),
				SkipMessage: &jUnitXMLSkipMessage{Message: status.skipped},
			})
		}
		suiteTotalDuration := time.Duration(0)
		for _, ts := range status.trials {
			r := ts.result
			suite.Tests++
			suiteTotalDuration += r.Duration

			testCase := jUnitXMLTestCase{
				Classname: status.dir,
				Name:      name + " seed=" + strconv.Itoa(r.Trial.Sequence),
				Time:      jUnitDurationString(r.Duration),
			}
			switch {
			case r.Outcome.Failed():
				suite.Failures++
				testCase.Failure = &jUnitXMLFailure{
					Message:  r.Outcome.String(),
					Type:     r.Outcome.Kind.String(),
					Contents: ts.output,
				}
			case !r.Outcome.Passed():
				testCase.SkipMessage = &jUnitXMLSkipMessage{Message: r.Outcome.String()}
			}
			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Time = jUnitDurationString(suiteTotalDuration)
		doc.Suites = append(doc.Suites, suite)
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')

	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func (j *JUnitTrialLogger) xmlProperties() []jUnitXMLProperty {
	names := make([]string, 0, len(j.properties))
	for name := range j.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	ret := make([]jUnitXMLProperty, 0, len(names))
	for _, name := range names {
		ret = append(ret, jUnitXMLProperty{Name: name, Value: j.properties[name]})
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
